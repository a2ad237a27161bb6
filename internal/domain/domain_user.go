package domain

import "time"

// User 用户领域模型
type User struct {
	UID       int64
	Email     string
	Username  string
	Password  string
	Salt      string
	Token     string
	Avatar    string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt time.Time
}

// IsActive 判断用户是否可用（未删除）
func (u *User) IsActive() bool {
	return !u.IsDeleted
}

// DisplayName 返回展示名，用户名为空时退回邮箱
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
