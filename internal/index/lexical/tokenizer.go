package lexical

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// nonWord matches everything that is neither a word character nor whitespace.
var nonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]+`)

// stopwords is the fixed English stop list applied to chunks and queries alike.
var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
		"to", "was", "will", "with", "this", "but", "they", "have",
		"had", "what", "said", "each", "which", "their", "time", "if",
		"up", "out", "many", "then", "them", "these", "so", "some", "her",
		"would", "make", "like", "into", "him", "two", "more",
		"very", "after", "words", "long", "than", "first", "been", "call",
		"who", "oil", "sit", "now", "find", "down", "day", "did", "get",
		"come", "made", "may", "part",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword reports whether the lowercase word is on the stop list.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// Tokenize lowercases text, strips punctuation and keeps alphabetic
// tokens longer than two characters that are not stop words.
// Token order and duplicates are preserved.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)

	tokens := fields[:0]
	for _, word := range fields {
		if utf8.RuneCountInString(word) <= 2 || !isAlpha(word) || IsStopword(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func isAlpha(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
