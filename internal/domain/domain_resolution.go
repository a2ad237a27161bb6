package domain

import "time"

// ConflictComplexity 冲突复杂度评估等级
type ConflictComplexity string

const (
	ComplexityLow    ConflictComplexity = "low"
	ComplexityMedium ConflictComplexity = "medium"
	ComplexityHigh   ConflictComplexity = "high"
)

// ResolutionRecommendation 复杂度分析给出的处理建议
type ResolutionRecommendation string

const (
	RecommendationAutoMerge        ResolutionRecommendation = "auto_merge"
	RecommendationManualResolution ResolutionRecommendation = "manual_resolution"
	RecommendationKeepMostRecent   ResolutionRecommendation = "keep_most_recent"
)

// ComplexityAnalysis 冲突复杂度分析结果
type ComplexityAnalysis struct {
	ConflictID     int64
	Complexity     ConflictComplexity
	TitleDiffers   bool
	BodyDiffers    bool
	Similarity     float64
	Recommendation ResolutionRecommendation
}

// SuggestionType 解决建议类型
type SuggestionType string

const (
	SuggestionKeepMostRecent   SuggestionType = "keep_most_recent"
	SuggestionAutoMerge        SuggestionType = "auto_merge"
	SuggestionSeparateVersions SuggestionType = "separate_versions"
	SuggestionManualMerge      SuggestionType = "manual_merge"
)

// ResolutionSuggestion 单条解决建议，按置信度降序排列后返回
type ResolutionSuggestion struct {
	Type       SuggestionType
	Confidence float64
	Reason     string
}

// MergeData 手工合并时调用方提供的最终内容
type MergeData struct {
	Title    string
	Body     string
	DeviceID string
}

// ResolutionResult 冲突解决结果
type ResolutionResult struct {
	ConflictID        int64
	NoteID            int64
	ResolutionType    ResolutionType
	Status            ConflictStatus
	ResolvedVersionID int64
	SeparatedNoteIDs  []int64
	ResolvedAt        time.Time
}

// VersionStatusChange 版本同步状态变更项
type VersionStatusChange struct {
	VersionID int64
	Status    SyncStatus
}

// SeparatedNote 拆分策略产生的新笔记及其根版本
type SeparatedNote struct {
	Note    *Note
	Version *NoteVersion
}

// ResolutionPlan 冲突解决的单事务执行计划
// 仓储在一个事务内完成状态条件更新、版本状态变更、指针移动、
// 新版本与新笔记写入以及历史追加；条件更新未命中时计划整体不生效
type ResolutionPlan struct {
	ConflictID     int64
	NoteID         int64
	Status         ConflictStatus
	ResolutionType ResolutionType
	ResolvedBy     int64
	ResolvedAt     time.Time

	// ResolvedVersionID 保留策略下预先确定；合并策略下由插入的新版本取代
	ResolvedVersionID int64
	StatusChanges     []VersionStatusChange

	// MergeVersion 非空时插入新版本并将指针移动到它
	MergeVersion *NoteVersion

	// SeparatedNotes 拆分策略下的两条新笔记，各自带一个根版本
	SeparatedNotes []*SeparatedNote

	// PointerVersionID 为 0 时不移动原笔记指针
	PointerVersionID int64
	PointerSequence  int64
	PointerTitle     string

	History *NoteHistory
}
