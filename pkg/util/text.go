package util

import (
	"strings"

	"golang.org/x/text/cases"
)

// TokenizeWords splits text into case-folded whitespace-delimited tokens.
// A Caser is stateful and must not be shared across calls.
// TokenizeWords 将文本按空白切分为大小写折叠后的词元。
// Caser 有内部状态，不能跨调用共享。
func TokenizeWords(text string) []string {
	caser := cases.Fold()
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, caser.String(f))
	}
	return tokens
}
