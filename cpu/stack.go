package cpu

const (
	STACK_LIMIT = 256 // Default maximum stack depth
)

// Stack is the operand stack. The top of the stack is the last element.
// A zero Limit means STACK_LIMIT.
type Stack struct {
	Data  []int32
	Limit int
}

func (s *Stack) Push(value int32) (ok bool) {
	if s.Full() {
		return
	}
	s.Data = append(s.Data, value)
	return true
}

func (s *Stack) Pop() (value int32, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) >= s.limit()
}

func (s *Stack) limit() int {
	if s.Limit <= 0 {
		return STACK_LIMIT
	}
	return s.Limit
}

// Depth returns the number of entries on the stack.
func (s *Stack) Depth() int {
	return len(s.Data)
}

// Has returns true if at least n entries are on the stack.
func (s *Stack) Has(n int) bool {
	return len(s.Data) >= n
}

// Room returns true if n more entries can be pushed.
func (s *Stack) Room(n int) bool {
	return len(s.Data)+n <= s.limit()
}

func (s *Stack) Peek() (value int32, ok bool) {
	return s.PeekAt(0)
}

// PeekAt returns the entry n below the top of the stack.
func (s *Stack) PeekAt(n int) (value int32, ok bool) {
	if n < 0 || n >= len(s.Data) {
		return
	}

	return s.Data[len(s.Data)-1-n], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
