package domain

import (
	"errors"
	"time"
)

// ErrConflictNotPending 冲突状态条件更新未命中时返回
var ErrConflictNotPending = errors.New("conflict is not pending")

// ConflictStatus 定义冲突生命周期状态
// pending 之外的状态均为终态，不允许再次解决
type ConflictStatus string

const (
	ConflictStatusPending           ConflictStatus = "pending"
	ConflictStatusResolvedAutomatic ConflictStatus = "resolved_automatic"
	ConflictStatusResolvedManual    ConflictStatus = "resolved_manual"
	ConflictStatusIgnored           ConflictStatus = "ignored"
)

// ResolutionType 定义冲突解决策略
// 策略令牌作为持久化枚举保留原始字面值
type ResolutionType string

const (
	ResolutionKeepLocal        ResolutionType = "manter_local"
	ResolutionKeepRemote       ResolutionType = "manter_remoto"
	ResolutionManualMerge      ResolutionType = "merge_manual"
	ResolutionSeparateVersions ResolutionType = "criar_versoes_separadas"
)

var resolutionTypes = map[ResolutionType]struct{}{
	ResolutionKeepLocal:        {},
	ResolutionKeepRemote:       {},
	ResolutionManualMerge:      {},
	ResolutionSeparateVersions: {},
}

// ParseResolutionType 校验并解析策略令牌
func ParseResolutionType(s string) (ResolutionType, bool) {
	t := ResolutionType(s)
	_, ok := resolutionTypes[t]
	return t, ok
}

// NoteConflict 笔记冲突领域模型
type NoteConflict struct {
	ID                int64
	NoteID            int64
	BaseVersionID     int64
	LocalVersionID    int64
	RemoteVersionID   int64
	LocalUID          int64
	RemoteUID         int64
	Status            ConflictStatus
	ResolutionType    ResolutionType
	ResolvedVersionID int64
	ResolvedBy        int64
	DetectedAt        time.Time
	ResolvedAt        time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsPending 判断冲突是否待解决
func (c *NoteConflict) IsPending() bool {
	return c.Status == ConflictStatusPending
}

// IsResolved 判断冲突是否已进入终态
func (c *NoteConflict) IsResolved() bool {
	return c.Status != ConflictStatusPending
}

// InvolvesUser 判断用户是否为冲突任一方
func (c *NoteConflict) InvolvesUser(uid int64) bool {
	return c.LocalUID == uid || c.RemoteUID == uid
}

// ConflictDetail 冲突及其关联展示信息
type ConflictDetail struct {
	Conflict        *NoteConflict
	NoteTitle       string
	LocalTitle      string
	RemoteTitle     string
	LocalBody       string
	RemoteBody      string
	LocalAuthor     string
	RemoteAuthor    string
	LocalCreatedAt  time.Time
	RemoteCreatedAt time.Time
}
