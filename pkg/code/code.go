package code

import (
	"fmt"
	"net/http"
)

// Code is the unified business status carried by every API response.
// Registered codes are process-global; duplicates panic at init time.
// Code 是所有 API 响应携带的统一业务状态。注册的状态码进程内全局唯一，
// 重复注册会在 init 阶段 panic。
type Code struct {
	// 状态码
	code int
	// 状态，true 为成功
	status bool
	// 多语言消息
	Lang lang
	// 数据
	data interface{}
	// 是否含有Data
	haveData bool
	// 错误详细信息
	details []string
	// 是否含有详情
	haveDetails bool
	// 透传上下文标识
	context string
	// 是否含有Context
	haveContext bool
}

var codes = map[int]string{}

// NewError registers a failure code.
// NewError 注册一个失败状态码。
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.GetMessage()
	return &Code{code: code, status: false, Lang: l}
}

// NewSuss registers a success code.
// NewSuss 注册一个成功状态码。
func NewSuss(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.GetMessage()
	return &Code{code: code, status: true, Lang: l}
}

// Clone 创建一个新的 Code 副本，附加字段回到零值
func (e *Code) Clone() *Code {
	return &Code{
		code:   e.code,
		status: e.status,
		Lang:   e.Lang,
	}
}

// Reset 清空附加字段，返回自身
func (e *Code) Reset() *Code {
	e.data = nil
	e.haveData = false
	e.details = nil
	e.haveDetails = false
	e.context = ""
	e.haveContext = false
	return e
}

func (e *Code) Error() string {
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) Context() string {
	return e.context
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) HaveContext() bool {
	return e.haveContext
}

func (e *Code) WithData(data interface{}) *Code {
	e.haveData = true
	e.data = data
	return e
}

func (e *Code) WithDetails(details ...string) *Code {
	e.haveDetails = true
	e.details = append([]string{}, details...)
	return e
}

func (e *Code) WithContext(context string) *Code {
	e.haveContext = true
	e.context = context
	return e
}

// StatusCode business errors still answer HTTP 200; transport-level failures
// are left to the middleware chain.
// StatusCode 业务错误仍返回 HTTP 200，传输层错误交由中间件处理。
func (e *Code) StatusCode() int {
	return http.StatusOK
}
