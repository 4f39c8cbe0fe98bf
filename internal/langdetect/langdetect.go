// Package langdetect guesses the language of a post body.
//
// Detection is strictly best-effort: the result decorates the post (clients
// can offer translation for foreign-language posts) but nothing depends on
// it. Every failure mode — empty input, ambiguous text, low classifier
// confidence — collapses to the empty string, and no error ever reaches
// the caller. Posting must never fail because a classifier was unsure.
package langdetect

import "github.com/abadojack/whatlanggo"

// Detect returns the ISO 639-1 code ("en", "es", ...) of the language the
// text is most likely written in, or "" when the guess isn't trustworthy.
//
// whatlanggo's trigram classifier is unreliable on very short inputs, which
// posts often are. IsReliable() gates on its confidence score; below the
// threshold we report "unknown" rather than a coin-flip answer.
func Detect(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
