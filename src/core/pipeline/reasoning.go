package pipeline

import (
	"regexp"
	"strings"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

const thinkClose = "</think>"

// StripReasoning removes <think>...</think> blocks that reasoning models emit before their answer.
// A closing tag without an opening one drops everything before it.
func StripReasoning(answer string) string {
	answer = thinkBlock.ReplaceAllString(answer, "")
	if i := strings.LastIndex(answer, thinkClose); i >= 0 {
		answer = answer[i+len(thinkClose):]
	}
	return strings.TrimSpace(answer)
}
