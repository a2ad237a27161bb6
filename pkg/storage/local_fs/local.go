package local_fs

import (
	"github.com/notesphere/note-sync-service/pkg/fileurl"
)

type Config struct {
	IsEnabled      bool   `yaml:"is-enable" default:"true"`
	IsUserEnabled  bool   `yaml:"is-user-enable"`
	HttpfsIsEnable bool   `yaml:"httpfs-is-enable" default:"true"`
	SavePath       string `yaml:"save-path" default:"storage/backup"`
}

type LocalFS struct {
	Config *Config
}

// NewClient 创建本地文件系统存储实例
func NewClient(conf *Config) (*LocalFS, error) {
	if conf.SavePath == "" {
		conf.SavePath = "storage/backup"
	}
	return &LocalFS{
		Config: conf,
	}, nil
}

func (p *LocalFS) getSavePath() string {
	return fileurl.PathSuffixCheckAdd(p.Config.SavePath, "/")
}
