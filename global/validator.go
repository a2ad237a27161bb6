package global

import (
	"github.com/notesphere/note-sync-service/pkg/validator"
)

// Validator 全局验证器，服务启动时注入，WebSocket 参数校验依赖它
var Validator *validator.CustomValidator
