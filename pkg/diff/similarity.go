package diff

import (
	"github.com/notesphere/note-sync-service/pkg/util"
)

// Similarity returns the Jaccard ratio of the two texts' case-folded word
// token sets, in [0, 1]. Either side being empty yields 0; the ratio is
// symmetric in its arguments.
// Similarity 返回两段文本大小写折叠词元集合的 Jaccard 比值，范围 [0, 1]。
// 任一侧为空返回 0，结果对参数对称。
func Similarity(a, b string) float64 {
	tokensA := util.TokenizeWords(a)
	tokensB := util.TokenizeWords(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(tokensA))
	for _, t := range tokensA {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(tokensB))
	for _, t := range tokensB {
		setB[t] = struct{}{}
	}

	common := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			common++
		}
	}

	union := len(setA) + len(setB) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}
