package emojify

import (
	"regexp"
	"unicode/utf8"
)

// WordLen is the exact rune length a word must have to earn an emoji.
const WordLen = 6

// minLeafLen is the shortest text worth scanning. Anything of five runes
// or fewer cannot hold a six-letter word.
const minLeafLen = 5

// wordRun matches maximal runs of word characters. A run of exactly WordLen
// runes is a word bounded by non-word characters on both sides.
var wordRun = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Replace appends the next emoji from c after every whole word of exactly
// six word characters in text. Other words are left untouched.
func Replace(text string, c *Cycle) string {
	return wordRun.ReplaceAllStringFunc(text, func(w string) string {
		if utf8.RuneCountInString(w) != WordLen {
			return w
		}
		return w + c.Next()
	})
}
