// Package service 实现业务逻辑层
package service

// EventPusher 将服务端事件推送给某个用户的全部在线连接
// 由应用容器用 WebSocket 服务器适配实现，服务层不感知传输细节
type EventPusher interface {
	// PushToUser 向 uid 的所有连接发送 action 事件
	PushToUser(uid int64, action string, data any)
}

// MirrorScheduler 在笔记内容落定后调度一次仓库镜像导出
// 由 GitMirrorService 实现，未启用镜像时传 nil
type MirrorScheduler interface {
	// Schedule 请求对用户的笔记执行防抖的镜像导出
	Schedule(uid int64)
}

// nopPusher 在未接入实时通道时丢弃事件
type nopPusher struct{}

func (nopPusher) PushToUser(int64, string, any) {}

// NewNopPusher 返回丢弃事件的 EventPusher
func NewNopPusher() EventPusher {
	return nopPusher{}
}
