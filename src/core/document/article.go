package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinArticleWords = 500
	MaxArticleWords = 1000
)

var (
	ErrArticleEmpty    = errors.New("article content is required")
	ErrArticleTooShort = errors.New("article too short")
	ErrArticleTooLong  = errors.New("article too long")
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

func CountWords(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// ValidateArticle checks that text is a usable research article of 500 to 1000 words.
// It returns the word count either way.
func ValidateArticle(text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrArticleEmpty
	}
	n := CountWords(text)
	switch {
	case n < MinArticleWords:
		return n, fmt.Errorf("%w (%d words): minimum %d words required", ErrArticleTooShort, n, MinArticleWords)
	case n > MaxArticleWords:
		return n, fmt.Errorf("%w (%d words): maximum %d words allowed", ErrArticleTooLong, n, MaxArticleWords)
	}
	return n, nil
}
