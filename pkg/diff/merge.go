// Package diff wraps go-diff with the text comparison helpers the sync
// engine needs: three-way merge previews and token similarity.
// Package diff 基于 go-diff 封装同步引擎所需的文本比较能力：三方合并预览
// 与词元相似度。
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MergeResult 三方合并结果
type MergeResult struct {
	// Content 合并后的文本
	Content string
	// HasConflict 是否存在无法自动套用的修改
	HasConflict bool
	// ConflictInfo 冲突补丁的简要描述，仅在 HasConflict 时有值
	ConflictInfo string
}

// MergeTexts merges two descendants of base into one text. Patches from the
// side indicated by localFirst are applied first; any patch that fails to
// apply marks the result as conflicting. The result is advisory: callers
// present it as a merge suggestion, the engine never persists it on its own.
// MergeTexts 将 base 的两个后代文本合并为一个。localFirst 指定的一侧补丁
// 先应用，任何未能套用的补丁都会将结果标记为冲突。结果仅供参考：调用方将其
// 作为合并建议展示，引擎不会自行持久化。
func MergeTexts(base, local, remote string, localFirst bool) (MergeResult, error) {
	dmp := diffmatchpatch.New()

	localPatches := dmp.PatchMake(base, dmp.DiffMain(base, local, false))
	remotePatches := dmp.PatchMake(base, dmp.DiffMain(base, remote, false))

	first, second := localPatches, remotePatches
	firstName, secondName := "local", "remote"
	if !localFirst {
		first, second = remotePatches, localPatches
		firstName, secondName = "remote", "local"
	}

	step1, applied1 := dmp.PatchApply(first, base)
	merged, applied2 := dmp.PatchApply(second, step1)

	var failed []string
	for i, ok := range applied1 {
		if !ok {
			failed = append(failed, fmt.Sprintf("%s#%d", firstName, i))
		}
	}
	for i, ok := range applied2 {
		if !ok {
			failed = append(failed, fmt.Sprintf("%s#%d", secondName, i))
		}
	}

	result := MergeResult{Content: merged}
	if len(failed) > 0 {
		result.HasConflict = true
		result.ConflictInfo = "unapplied patches: " + strings.Join(failed, ", ")
	}
	return result, nil
}

// MergeTextsKeepAll is the forced variant: delete operations are stripped
// from both sides before patching, so every piece of text survives even when
// the regions overlap. Used when a caller asks for a lossless preview.
// MergeTextsKeepAll 是强制合并变体：先剔除双方的删除操作再打补丁，即使修改
// 区域重叠，所有文本也都会保留。用于调用方需要无损预览的场景。
func MergeTextsKeepAll(base, local, remote string, localFirst bool) (string, error) {
	dmp := diffmatchpatch.New()

	insertOnly := func(to string) []diffmatchpatch.Patch {
		diffs := dmp.DiffMain(base, to, false)
		kept := make([]diffmatchpatch.Diff, 0, len(diffs))
		for _, d := range diffs {
			if d.Type != diffmatchpatch.DiffDelete {
				kept = append(kept, d)
			}
		}
		return dmp.PatchMake(base, kept)
	}

	first, second := insertOnly(local), insertOnly(remote)
	if !localFirst {
		first, second = second, first
	}

	step1, _ := dmp.PatchApply(first, base)
	merged, _ := dmp.PatchApply(second, step1)
	return merged, nil
}

// PrettyDiff renders a terminal-friendly inline diff of two texts, used by
// the conflict detail view.
// PrettyDiff 渲染两段文本的行内差异，用于冲突详情展示。
func PrettyDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, true)
	return dmp.DiffPrettyText(dmp.DiffCleanupSemantic(diffs))
}
