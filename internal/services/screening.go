package services

import (
	"regexp"
	"strings"
	"unicode"
)

// Sellers sometimes paste their number into the description, which would
// bypass contact gating on pending items. ScreenDescription catches that.

var (
	emailPattern = regexp.MustCompile(`[a-z0-9._%+\-]+\s*(@|\(at\)|\[at\])\s*[a-z0-9.\-]+\s*(\.|\(dot\)|\[dot\])\s*[a-z]{2,}`)
	urlPattern   = regexp.MustCompile(`(https?://|www\.)\S+|\b[a-z0-9\-]+\.(com|in|net|org|io|me)\b`)
	spacePattern = regexp.MustCompile(`\s+`)
)

var digitWords = map[string]rune{
	"zero": '0', "oh": '0',
	"one": '1', "two": '2', "three": '3', "four": '4', "five": '5',
	"six": '6', "seven": '7', "eight": '8', "nine": '9',
}

// normalizeDigits lower-cases text and rewrites spelled-out digits so
// "nine eight seven" reads as "987".
func normalizeDigits(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if d, ok := digitWords[trimmed]; ok {
			words[i] = string(d)
		}
	}
	return strings.Join(words, " ")
}

// longestDigitRun counts digits in a row, ignoring the separators people
// put inside phone numbers.
func longestDigitRun(text string) int {
	longest, run := 0, 0
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			run++
			if run > longest {
				longest = run
			}
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')' || r == '+':
		default:
			run = 0
		}
	}
	return longest
}

// ScreenDescription returns the kinds of contact details found in text.
func ScreenDescription(text string) []string {
	lower := spacePattern.ReplaceAllString(strings.ToLower(text), " ")

	var found []string
	if emailPattern.MatchString(lower) {
		found = append(found, "email")
	}
	if urlPattern.MatchString(emailPattern.ReplaceAllString(lower, " ")) {
		found = append(found, "link")
	}
	if longestDigitRun(normalizeDigits(lower)) >= 10 {
		found = append(found, "phone")
	}
	return found
}
