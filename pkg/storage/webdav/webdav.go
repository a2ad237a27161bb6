package webdav

import (
	"github.com/studio-b12/gowebdav"
)

// Config WebDAV 连接配置
type Config struct {
	IsEnabled     bool   `yaml:"is-enable"`
	IsUserEnabled bool   `yaml:"is-user-enable"`
	Endpoint      string `yaml:"endpoint"`
	Path          string `yaml:"path"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	CustomPath    string `yaml:"custom-path"`
}

// WebDAV 封装 gowebdav 客户端
type WebDAV struct {
	Client *gowebdav.Client
	Config *Config
}

// clients 按连接信息缓存客户端，重复创建时复用
var clients = make(map[string]*WebDAV)

// NewClient 创建 WebDAV 客户端实例
func NewClient(conf *Config) (*WebDAV, error) {
	cacheKey := conf.Endpoint + conf.Path + conf.User + conf.CustomPath
	if w, ok := clients[cacheKey]; ok {
		return w, nil
	}

	c := gowebdav.NewClient(conf.Endpoint, conf.User, conf.Password)
	c.Connect()

	w := &WebDAV{
		Client: c,
		Config: conf,
	}
	clients[cacheKey] = w
	return w, nil
}
