// Package translate formats user-facing messages in the caller's locale.
package translate

//go:generate go tool gotext -srclang=en-US update -out=catalog.go -lang=en-US github.com/ezrec/shapedet/...

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DEFAULT_LANGUAGE = "en-US"

var (
	lock    sync.RWMutex
	tag     language.Tag
	printer *message.Printer
)

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("translate: %v", err)
	}

	SetLanguage(locales...)
}

// SetLanguage selects the closest match to the BCP 47 tags, in order of
// preference. With no tags, DEFAULT_LANGUAGE is used.
func SetLanguage(tags ...string) {
	if len(tags) == 0 {
		tags = []string{DEFAULT_LANGUAGE}
	}

	lock.Lock()
	defer lock.Unlock()

	tag = message.MatchLanguage(tags...)
	printer = message.NewPrinter(tag)
}

// Language is the language messages are formatted in.
func Language() language.Tag {
	lock.RLock()
	defer lock.RUnlock()

	return tag
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	lock.RLock()
	defer lock.RUnlock()

	return printer.Sprintf(key, args...)
}
