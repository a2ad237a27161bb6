// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/notesphere/note-sync-service/internal/model"
	"github.com/notesphere/note-sync-service/pkg/fileurl"
	"github.com/notesphere/note-sync-service/pkg/writequeue"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type            string
	Path            string
	UserName        string
	Password        string
	Host            string
	Name            string
	TablePrefix     string
	AutoMigrate     bool
	Charset         string
	ParseTime       bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	// Replicas 只读副本 DSN 列表，仅 mysql/postgres 生效
	Replicas []string
	RunMode  string
}

// WriteKeyProvider 声明仓储的写队列键
// 写入按用户串行化，键值用于诊断日志
type WriteKeyProvider interface {
	GetKey(uid int64) string
}

// Dao 数据访问对象
type Dao struct {
	db         *gorm.DB
	config     *DatabaseConfig
	logger     *zap.Logger
	writeQueue *writequeue.Manager

	// onceKeys 记录已迁移的模型，保证每张表只迁移一次
	onceKeys sync.Map
}

// Option Dao 选项
type Option func(*Dao)

// WithConfig 设置数据库配置
func WithConfig(c *DatabaseConfig) Option {
	return func(d *Dao) {
		d.config = c
	}
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(d *Dao) {
		d.logger = l
	}
}

// WithWriteQueueManager 设置写队列管理器
func WithWriteQueueManager(m *writequeue.Manager) Option {
	return func(d *Dao) {
		d.writeQueue = m
	}
}

// New 创建 Dao 实例
func New(db *gorm.DB, opts ...Option) *Dao {
	d := &Dao{db: db}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// DB 获取底层数据库连接
func (d *Dao) DB() *gorm.DB {
	return d.db
}

// Logger 获取日志实例
func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// Use 获取指定模型的数据库连接并确保表结构已迁移
func (d *Dao) Use(modelKey string) *gorm.DB {
	if _, loaded := d.onceKeys.LoadOrStore(modelKey+"#migrated", true); !loaded {
		if err := model.AutoMigrate(d.db, modelKey); err != nil {
			d.logger.Error("auto migrate failed",
				zap.String("model", modelKey),
				zap.Error(err))
		}
	}
	return d.db
}

// ExecuteWrite 执行写操作，同一用户的写入经写队列串行化
// 写队列未配置时直接执行
func (d *Dao) ExecuteWrite(ctx context.Context, uid int64, kp WriteKeyProvider, fn func(db *gorm.DB) error) error {
	if d.writeQueue == nil {
		return fn(d.db)
	}
	return d.writeQueue.Execute(ctx, uid, func() error {
		return fn(d.db)
	})
}

// ExecuteWriteTx 在写队列内以单个事务执行写操作
func (d *Dao) ExecuteWriteTx(ctx context.Context, uid int64, kp WriteKeyProvider, fn func(tx *gorm.DB) error) error {
	return d.ExecuteWrite(ctx, uid, kp, func(db *gorm.DB) error {
		return db.WithContext(ctx).Transaction(fn)
	})
}

// NewDBEngine 初始化 GORM 连接
func NewDBEngine(c *DatabaseConfig) (*gorm.DB, error) {

	dialector := newDialector(c)
	if dialector == nil {
		return nil, fmt.Errorf("unsupported database type: %s", c.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, err
	}
	if c.RunMode == "debug" {
		db.Config.Logger = logger.Default.LogMode(logger.Info)
	} else {
		db.Config.Logger = logger.Default.LogMode(logger.Silent)
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SetMaxIdleConns 用于设置连接池中空闲连接的最大数量。
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)

	// SetMaxOpenConns 设置打开数据库连接的最大数量。
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)

	// SetConnMaxLifetime 设置了连接可复用的最大时间。
	sqlDB.SetConnMaxLifetime(parseDurationOr(c.ConnMaxLifetime, 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(parseDurationOr(c.ConnMaxIdleTime, 10*time.Minute))

	_ = db.Use(&gormTracing.OpentracingPlugin{})

	// 配置了只读副本时注册读写分离
	if len(c.Replicas) > 0 && c.Type != "sqlite" {
		var replicas []gorm.Dialector
		for _, dsn := range c.Replicas {
			if rd := replicaDialector(c.Type, dsn); rd != nil {
				replicas = append(replicas, rd)
			}
		}
		if len(replicas) > 0 {
			err = db.Use(dbresolver.Register(dbresolver.Config{
				Replicas: replicas,
				Policy:   dbresolver.RandomPolicy{},
			}))
			if err != nil {
				return nil, err
			}
		}
	}

	return db, nil
}

func newDialector(c *DatabaseConfig) gorm.Dialector {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
			c.ParseTime,
		))
	case "postgres":
		return postgres.Open(fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
		))
	case "sqlite":
		if !fileurl.IsExist(c.Path) {
			_ = fileurl.CreatePath(c.Path, os.ModePerm)
		}
		return sqlite.Open(c.Path)
	}
	return nil
}

func replicaDialector(dbType, dsn string) gorm.Dialector {
	switch dbType {
	case "mysql":
		return mysql.Open(dsn)
	case "postgres":
		return postgres.Open(dsn)
	}
	return nil
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
