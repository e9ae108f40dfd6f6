// Package translate localizes user-facing messages.
//
// Messages are keyed by their en-US format string. The printer is chosen
// from the user's locale settings at start up, and may be replaced with Use.
package translate

import (
	"sync/atomic"

	"github.com/jeandeaual/go-locale"
	log "github.com/sirupsen/logrus"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const FALLBACK = "en-US"

var printer atomic.Pointer[message.Printer]

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.WithError(err).Debug("stackvm: locale")
	}

	Use(locales...)
}

// Use selects the best matching language from the given BCP 47 tags.
// With no tags, en-US is used.
func Use(tags ...string) (tag language.Tag) {
	if len(tags) == 0 {
		tags = []string{FALLBACK}
	}

	tag = message.MatchLanguage(tags...)
	printer.Store(message.NewPrinter(tag))

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Load().Sprintf(key, args...)
}
