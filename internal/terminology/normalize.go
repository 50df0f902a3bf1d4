package terminology

import (
	"strings"

	"sales-intent-go/internal/logger"
)

// Normalize applies rules in order, each one to the output of the previous,
// then collapses whitespace runs to one space and trims. It never fails: a
// panic inside a rewrite returns the original text.
func Normalize(text string, rules []Rule) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Component("terminology").WithField("panic", r).Error("normalization aborted, returning original text")
			out = text
		}
	}()

	corrected := text
	for _, r := range rules {
		if r.Wrong == "" {
			continue
		}
		corrected = strings.ReplaceAll(corrected, r.Wrong, r.Correct)
	}
	return strings.Join(strings.Fields(corrected), " ")
}

// Changed reports whether normalizing text did more than collapse whitespace.
func Changed(text, normalized string) bool {
	return normalized != strings.Join(strings.Fields(text), " ")
}
