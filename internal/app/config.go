// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/notesphere/note-sync-service/internal/service"
	"github.com/notesphere/note-sync-service/pkg/mailer"
	"github.com/notesphere/note-sync-service/pkg/storage"
	"github.com/notesphere/note-sync-service/pkg/util"
	"github.com/notesphere/note-sync-service/pkg/workerpool"
	"github.com/notesphere/note-sync-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File      string          `yaml:"-"` // 配置文件路径，不序列化
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	App       AppSettings     `yaml:"app"`
	User      UserConfig      `yaml:"user"`
	Security  SecurityConfig  `yaml:"security"`
	Sync      SyncConfig      `yaml:"sync"`
	Notify    NotifyConfig    `yaml:"notify"`
	Storage   storage.Config  `yaml:"storage"`
	Backup    BackupConfig    `yaml:"backup"`
	GitMirror GitMirrorConfig `yaml:"git-mirror"`
	Tunnel    TunnelConfig    `yaml:"tunnel"`
	Tracer    TracerConfig    `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，默认为 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"note-sync-Auth-Token"`
	TokenExpiry  string `yaml:"token-expiry" default:"365d"` // Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset 字符集
	Charset string `yaml:"charset"`
	// ParseTime 是否解析时间
	ParseTime bool `yaml:"parse-time"`
	// MaxIdleConns 最大闲置连接数，默认 10
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数，默认 100
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，支持格式：30m（分钟）、1h（小时），默认 30m
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期，支持格式：10m（分钟）、1h（小时），默认 10m
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
	// Replicas 只读副本 DSN 列表，仅 mysql/postgres 生效
	Replicas []string `yaml:"replicas"`
}

// UserConfig 用户配置
type UserConfig struct {
	// RegisterIsEnable 注册是否启用
	RegisterIsEnable bool `yaml:"register-is-enable" default:"true"`
	// AdminUID 管理员 UID，0 表示不限制管理员访问
	AdminUID int `yaml:"admin-uid" default:"0"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"100"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// SyncConfig 同步引擎配置
type SyncConfig struct {
	// EditingWindow 编辑会话的活跃窗口，窗口内未心跳的会话视为过期
	EditingWindow string `yaml:"editing-window" default:"5m"`
	// AutoResolveAge 冲突自动解决的时间差阈值
	AutoResolveAge string `yaml:"auto-resolve-age" default:"24h"`
	// HistoryPageCap 历史查询单次返回的行数上限
	HistoryPageCap int `yaml:"history-page-cap" default:"100"`
	// ConflictScanInterval 后台冲突扫描的执行间隔
	ConflictScanInterval string `yaml:"conflict-scan-interval" default:"1m"`
	// ConflictScanWindow 冲突扫描回看的时间窗口
	ConflictScanWindow string `yaml:"conflict-scan-window" default:"10m"`
	// SessionCleanupInterval 过期编辑会话清理的执行间隔
	SessionCleanupInterval string `yaml:"session-cleanup-interval" default:"1m"`
}

// NotifyConfig 冲突邮件通知配置
type NotifyConfig struct {
	// Enable 是否启用邮件通知
	Enable bool `yaml:"enable" default:"false"`
	// Host SMTP 服务器地址
	Host string `yaml:"host"`
	// Port SMTP 服务器端口
	Port int `yaml:"port" default:"587"`
	// Username SMTP 认证用户名
	Username string `yaml:"username"`
	// Password SMTP 认证密码
	Password string `yaml:"password"`
	// From 发件人地址
	From string `yaml:"from"`
	// FromName 发件人显示名称
	FromName string `yaml:"from-name" default:"NoteSphere Sync"`
	// SkipTLSVerify 是否跳过 TLS 证书校验
	SkipTLSVerify bool `yaml:"skip-tls-verify" default:"false"`
}

// BackupConfig 备份导出配置
type BackupConfig struct {
	// Enable 是否启用定时备份
	Enable bool `yaml:"enable" default:"false"`
	// Cron 定时执行的 cron 表达式
	Cron string `yaml:"cron" default:"0 3 * * *"`
	// HistoryLimit 备份历史查询单次上限
	HistoryLimit int `yaml:"history-limit" default:"50"`
}

// GitMirrorConfig Git 镜像导出配置
type GitMirrorConfig struct {
	// Enable 是否启用镜像
	Enable bool `yaml:"enable" default:"false"`
	// RepoURL 远端仓库地址
	RepoURL string `yaml:"repo-url"`
	// Branch 目标分支
	Branch string `yaml:"branch" default:"main"`
	// Username HTTP 认证用户名
	Username string `yaml:"username"`
	// Password HTTP 认证密码或令牌
	Password string `yaml:"password"`
	// AuthorName 提交作者名
	AuthorName string `yaml:"author-name"`
	// AuthorEmail 提交作者邮箱
	AuthorEmail string `yaml:"author-email"`
	// Workspace 本地克隆工作区
	Workspace string `yaml:"workspace" default:"storage/git_mirror"`
	// Debounce 变更到导出的防抖延迟
	Debounce string `yaml:"debounce" default:"30s"`
}

// TunnelConfig ngrok 隧道配置
type TunnelConfig struct {
	// Enable 是否启用隧道
	Enable bool `yaml:"enable" default:"false"`
	// AuthToken ngrok 认证令牌
	AuthToken string `yaml:"auth-token"`
	// Domain 自定义域名，空值使用随机分配的域名
	Domain string `yaml:"domain"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
	// Jaeger 是否把数据库 span 上报到 Jaeger agent
	Jaeger bool `yaml:"jaeger" default:"false"`
	// JaegerAgent Jaeger agent 地址
	JaegerAgent string `yaml:"jaeger-agent" default:"127.0.0.1:6831"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 365 * 24 * time.Hour // 理论上不会走到这里，因为有默认值
}

// GetSyncServiceConfig 获取同步引擎的服务层配置
func (c *AppConfig) GetSyncServiceConfig() service.SyncServiceConfig {
	cfg := service.SyncServiceConfig{
		HistoryPageCap: c.Sync.HistoryPageCap,
	}

	if c.Sync.EditingWindow != "" {
		if window, err := util.ParseDuration(c.Sync.EditingWindow); err == nil {
			cfg.EditingWindow = window
		}
	}
	if c.Sync.AutoResolveAge != "" {
		if age, err := util.ParseDuration(c.Sync.AutoResolveAge); err == nil {
			cfg.AutoResolveAge = age
		}
	}

	return cfg
}

// GetConflictScanInterval 获取后台冲突扫描间隔
func (c *AppConfig) GetConflictScanInterval() time.Duration {
	if interval, err := util.ParseDuration(c.Sync.ConflictScanInterval); err == nil {
		return interval
	}
	return time.Minute
}

// GetConflictScanWindow 获取冲突扫描回看窗口
func (c *AppConfig) GetConflictScanWindow() time.Duration {
	if window, err := util.ParseDuration(c.Sync.ConflictScanWindow); err == nil {
		return window
	}
	return 10 * time.Minute
}

// GetSessionCleanupInterval 获取过期编辑会话清理间隔
func (c *AppConfig) GetSessionCleanupInterval() time.Duration {
	if interval, err := util.ParseDuration(c.Sync.SessionCleanupInterval); err == nil {
		return interval
	}
	return time.Minute
}

// GetMailerConfig 获取邮件发送配置
func (c *AppConfig) GetMailerConfig() mailer.Config {
	return mailer.Config{
		Enable:        c.Notify.Enable,
		Host:          c.Notify.Host,
		Port:          c.Notify.Port,
		Username:      c.Notify.Username,
		Password:      c.Notify.Password,
		From:          c.Notify.From,
		FromName:      c.Notify.FromName,
		SkipTLSVerify: c.Notify.SkipTLSVerify,
	}
}

// GetBackupServiceConfig 获取备份导出的服务层配置
func (c *AppConfig) GetBackupServiceConfig() service.BackupServiceConfig {
	return service.BackupServiceConfig{
		Enable:       c.Backup.Enable,
		Cron:         c.Backup.Cron,
		HistoryLimit: c.Backup.HistoryLimit,
	}
}

// GetGitMirrorServiceConfig 获取 Git 镜像的服务层配置
func (c *AppConfig) GetGitMirrorServiceConfig() service.GitMirrorServiceConfig {
	cfg := service.GitMirrorServiceConfig{
		Enable:      c.GitMirror.Enable,
		RepoURL:     c.GitMirror.RepoURL,
		Branch:      c.GitMirror.Branch,
		Username:    c.GitMirror.Username,
		Password:    c.GitMirror.Password,
		AuthorName:  c.GitMirror.AuthorName,
		AuthorEmail: c.GitMirror.AuthorEmail,
		Workspace:   c.GitMirror.Workspace,
	}

	if c.GitMirror.Debounce != "" {
		if debounce, err := util.ParseDuration(c.GitMirror.Debounce); err == nil {
			cfg.Debounce = debounce
		}
	}

	return cfg
}
