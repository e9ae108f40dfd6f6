// Package cpu implements the stack machine and its assembler.
//
// The machine is a Harvard architecture: instructions live in an
// instruction memory addressed by the program counter, and integers live
// in a separate data memory addressed by LOAD and STORE. All computation
// happens on an operand stack of 32-bit signed integers. Each instruction
// is packed into a 32-bit word, with the opcode in bits 0-7 and a signed
// 24-bit operand in bits 8-31.
//
// Arithmetic and logical instructions set the zero, negative and overflow
// flags, which the conditional jumps test. Faults (stack underflow or
// overflow, bad data addresses, division by zero, unknown opcodes) halt
// the machine and are recorded in its State rather than returned.
//
// The assembler provides a line oriented assembly language with labels,
// equates, macros, and compile-time expression evaluation.
package cpu
