// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	User      UserServiceConfig      // User related config // 用户相关配置
	Sync      SyncServiceConfig      // Sync engine related config // 同步引擎相关配置
	Backup    BackupServiceConfig    // Backup export related config // 备份导出相关配置
	GitMirror GitMirrorServiceConfig // Git mirror related config // Git 镜像相关配置
}

// UserServiceConfig user service configuration
// UserServiceConfig 用户服务配置
type UserServiceConfig struct {
	RegisterIsEnable bool // Whether registration is enabled // 注册是否启用
}

// SyncServiceConfig sync engine configuration
// SyncServiceConfig 同步引擎配置
type SyncServiceConfig struct {
	EditingWindow  time.Duration // Active editing session window // 编辑会话活跃窗口
	AutoResolveAge time.Duration // Age threshold for automatic resolution // 自动解决的时间差阈值
	HistoryPageCap int           // Max rows per history read // 历史查询单次上限
}

// BackupServiceConfig backup export configuration
// BackupServiceConfig 备份导出配置
type BackupServiceConfig struct {
	Enable       bool   // Whether scheduled backup is enabled // 是否启用定时备份
	Cron         string // Cron expression for scheduled runs // 定时执行的 cron 表达式
	HistoryLimit int    // Max history rows per read // 备份历史查询单次上限
}

// cronSpec falls back to a daily 03:00 run when unset
// cronSpec 未配置时回退到每天 03:00 执行
func (c *BackupServiceConfig) cronSpec() string {
	if c == nil || c.Cron == "" {
		return "0 3 * * *"
	}
	return c.Cron
}

// historyLimit falls back to 50 when unset
// historyLimit 未配置时回退到 50
func (c *BackupServiceConfig) historyLimit() int {
	if c == nil || c.HistoryLimit <= 0 {
		return 50
	}
	return c.HistoryLimit
}

// GitMirrorServiceConfig git mirror configuration
// GitMirrorServiceConfig Git 镜像配置
type GitMirrorServiceConfig struct {
	Enable      bool          // Whether mirroring is enabled // 是否启用镜像
	RepoURL     string        // Remote repository URL // 远端仓库地址
	Branch      string        // Target branch // 目标分支
	Username    string        // HTTP basic auth username // HTTP 认证用户名
	Password    string        // HTTP basic auth password or token // HTTP 认证密码或令牌
	AuthorName  string        // Commit author name // 提交作者名
	AuthorEmail string        // Commit author email // 提交作者邮箱
	Workspace   string        // Local clone workspace // 本地克隆工作区
	Debounce    time.Duration // Delay between change and export // 变更到导出的防抖延迟
}

// branch falls back to main when unset
// branch 未配置时回退到 main
func (c *GitMirrorServiceConfig) branch() string {
	if c == nil || c.Branch == "" {
		return "main"
	}
	return c.Branch
}

// workspace falls back to storage/git_mirror when unset
// workspace 未配置时回退到 storage/git_mirror
func (c *GitMirrorServiceConfig) workspace() string {
	if c == nil || c.Workspace == "" {
		return "storage/git_mirror"
	}
	return c.Workspace
}

// debounce falls back to 30 seconds when unset
// debounce 未配置时回退到 30 秒
func (c *GitMirrorServiceConfig) debounce() time.Duration {
	if c == nil || c.Debounce <= 0 {
		return 30 * time.Second
	}
	return c.Debounce
}

// author falls back to the service identity when unset
// author 未配置时回退到服务默认身份
func (c *GitMirrorServiceConfig) author() (string, string) {
	name, email := "Note Sync Service", "sync@notesphere.local"
	if c != nil && c.AuthorName != "" {
		name = c.AuthorName
	}
	if c != nil && c.AuthorEmail != "" {
		email = c.AuthorEmail
	}
	return name, email
}

// editingWindow falls back to the five minute default when unset
// editingWindow 未配置时回退到 5 分钟默认值
func (c *SyncServiceConfig) editingWindow() time.Duration {
	if c == nil || c.EditingWindow <= 0 {
		return 5 * time.Minute
	}
	return c.EditingWindow
}

// autoResolveAge falls back to the 24 hour default when unset
// autoResolveAge 未配置时回退到 24 小时默认值
func (c *SyncServiceConfig) autoResolveAge() time.Duration {
	if c == nil || c.AutoResolveAge <= 0 {
		return 24 * time.Hour
	}
	return c.AutoResolveAge
}

// historyPageCap falls back to 100 when unset
// historyPageCap 未配置时回退到 100
func (c *SyncServiceConfig) historyPageCap() int {
	if c == nil || c.HistoryPageCap <= 0 {
		return 100
	}
	return c.HistoryPageCap
}
