package websocket_router

import (
	"context"

	"github.com/notesphere/note-sync-service/internal/app"
	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	pkgapp "github.com/notesphere/note-sync-service/pkg/app"
	"github.com/notesphere/note-sync-service/pkg/code"
	"github.com/notesphere/note-sync-service/pkg/convert"

	"go.uber.org/zap"
)

// SyncWSHandler WebSocket sync handler
// SyncWSHandler WebSocket 同步处理器
// Uses App Container to inject dependencies
// 使用 App Container 注入依赖
type SyncWSHandler struct {
	*WSHandler
}

// NewSyncWSHandler creates SyncWSHandler instance
// NewSyncWSHandler 创建 SyncWSHandler 实例
func NewSyncWSHandler(a *app.App, wss *pkgapp.WebsocketServer) *SyncWSHandler {
	return &SyncWSHandler{
		WSHandler: NewWSHandler(a, wss),
	}
}

// RegisterDevice handles WebSocket messages for device registration
// 函数名: RegisterDevice
// Function name: RegisterDevice
// usage: Binds the device identity reported by the client to the current connection and replies with server version info and a client update hint.
// 函数使用说明: 将客户端上报的设备标识绑定到当前连接，并回执服务端版本信息与客户端更新提示。
// Parameters:
//   - c *pkgapp.WebsocketClient: Current WebSocket client connection, including context, user info, response sending capability, etc.
//
// 参数说明:
//   - c *pkgapp.WebsocketClient: 当前 WebSocket 客户端连接，包含上下文、用户信息、发送响应等能力。
//   - msg *pkgapp.WebSocketMessage: Received WebSocket message, containing message data and type.
//
// 参数说明:
//   - msg *pkgapp.WebSocketMessage: 接收到的 WebSocket 消息，包含消息数据和类型。
//
// Return:
//   - None
//
// 返回值说明:
//   - 无
func (h *SyncWSHandler) RegisterDevice(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.RegisterDeviceMessage{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.sync.RegisterDevice.BindAndValid")
		return
	}

	c.DeviceID = params.DeviceID
	c.ClientName = params.ClientName
	c.ClientVersion = params.ClientVersion

	h.logInfo(c, "websocket_router.sync.RegisterDevice",
		zap.Int64("uid", c.User.UID),
		zap.String("deviceId", params.DeviceID),
		zap.String("clientName", params.ClientName),
		zap.String("clientVersion", params.ClientVersion))

	// 回执附带服务端版本与客户端更新提示
	version := h.App.Version()
	check := h.App.CheckVersion(params.ClientVersion)
	c.ToResponse(code.Success.WithData(&dto.RegisterDeviceAckMessage{
		DeviceID:             params.DeviceID,
		ServerVersion:        version.Version,
		ClientVersionIsNew:   check.ClientVersionIsNew,
		ClientVersionNewName: check.ClientVersionNewName,
		ClientVersionNewLink: check.ClientVersionNewLink,
	}), dto.ActionRegisterDevice)
}

// StartEditing handles WebSocket messages for opening an editing session
// 函数名: StartEditing
// Function name: StartEditing
// usage: Registers an editing session for the note, replies with the other currently active editors, and relays the editing state to them.
// 函数使用说明: 为笔记登记编辑会话，回执当前其他活跃编辑者列表，并向他们转发编辑状态。
// Parameters:
//   - c *pkgapp.WebsocketClient: Current WebSocket client connection, including context, user info, response sending capability, etc.
//
// 参数说明:
//   - c *pkgapp.WebsocketClient: 当前 WebSocket 客户端连接，包含上下文、用户信息、发送响应等能力。
//   - msg *pkgapp.WebSocketMessage: Received WebSocket message, containing message data and type.
//
// 参数说明:
//   - msg *pkgapp.WebSocketMessage: 接收到的 WebSocket 消息，包含消息数据和类型。
//
// Return:
//   - None
//
// 返回值说明:
//   - 无
func (h *SyncWSHandler) StartEditing(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.StartEditingMessage{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.sync.StartEditing.BindAndValid")
		return
	}

	ctx := c.Context()
	uid := c.User.UID

	// 编辑会话要求编辑权限
	canEdit, err := h.App.ShareService.CanUserEdit(ctx, params.NoteID, uid)
	if err != nil {
		h.respondServiceError(c, err, "websocket_router.sync.StartEditing.CanUserEdit")
		return
	}
	if !canEdit {
		c.ToResponse(code.ErrorNoteAccessDenied)
		return
	}

	// 先取其他活跃编辑者，回执给发起方作为当前协作状态
	others := h.App.EditingService.OtherActiveEditors(params.NoteID, uid)

	h.App.EditingService.Start(params.NoteID, uid, c.DeviceID)
	c.MarkEditing(params.NoteID, c.DeviceID)

	peers := make([]*dto.UserEditingEventMessage, 0, len(others))
	for _, session := range others {
		peers = append(peers, &dto.UserEditingEventMessage{
			NoteID:   session.NoteID,
			UID:      session.UID,
			DeviceID: session.DeviceID,
			State:    "start",
		})
	}
	c.ToResponse(code.Success.WithData(peers), dto.ActionStartEditing)

	// 向其他编辑者转发编辑状态
	h.notifyEditors(others, uid, dto.EventUserEditing, &dto.UserEditingEventMessage{
		NoteID:   params.NoteID,
		UID:      uid,
		DeviceID: c.DeviceID,
		State:    "start",
	})

	h.logDebug(c, "websocket_router.sync.StartEditing",
		zap.Int64("uid", uid),
		zap.Int64("noteId", params.NoteID),
		zap.Int("otherEditors", len(others)))
}

// StopEditing handles WebSocket messages for closing an editing session
// 函数名: StopEditing
// Function name: StopEditing
// usage: Deregisters the editing session for the note and relays the stop state to the remaining active editors. Idempotent when no session exists.
// 函数使用说明: 注销笔记的编辑会话，并向其余活跃编辑者转发停止状态。会话不存在时幂等。
// Parameters:
//   - c *pkgapp.WebsocketClient: Current WebSocket client connection, including context, user info, response sending capability, etc.
//
// 参数说明:
//   - c *pkgapp.WebsocketClient: 当前 WebSocket 客户端连接，包含上下文、用户信息、发送响应等能力。
//   - msg *pkgapp.WebSocketMessage: Received WebSocket message, containing message data and type.
//
// 参数说明:
//   - msg *pkgapp.WebSocketMessage: 接收到的 WebSocket 消息，包含消息数据和类型。
//
// Return:
//   - None
//
// 返回值说明:
//   - 无
func (h *SyncWSHandler) StopEditing(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.StopEditingMessage{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.sync.StopEditing.BindAndValid")
		return
	}

	uid := c.User.UID

	stopped := h.App.EditingService.Stop(params.NoteID, uid, c.DeviceID)
	c.UnmarkEditing(params.NoteID)

	if !stopped {
		c.ToResponse(code.SuccessNoUpdate)
		return
	}
	c.ToResponse(code.Success, dto.ActionStopEditing)

	h.notifyEditors(h.App.EditingService.ActiveEditors(params.NoteID), uid, dto.EventUserEditing, &dto.UserEditingEventMessage{
		NoteID:   params.NoteID,
		UID:      uid,
		DeviceID: c.DeviceID,
		State:    "stop",
	})
}

// NoteUpdated handles WebSocket messages for note edit submission
// 函数名: NoteUpdated
// Function name: NoteUpdated
// usage: Handles note edit submissions sent by clients, performs parameter validation and permission checks, appends a new version, acknowledges the sync status and notifies other devices and collaborators, then runs a real-time collision check.
// 函数使用说明: 处理客户端发送的笔记编辑提交，进行参数校验与权限检查，追加新版本，回执同步状态并通知其他设备与协作者，随后执行实时碰撞检查。
// Parameters:
//   - c *pkgapp.WebsocketClient: Current WebSocket client connection, including context, user info, response sending capability, etc.
//
// 参数说明:
//   - c *pkgapp.WebsocketClient: 当前 WebSocket 客户端连接，包含上下文、用户信息、发送响应等能力。
//   - msg *pkgapp.WebSocketMessage: Received WebSocket message, containing message data and type.
//
// 参数说明:
//   - msg *pkgapp.WebSocketMessage: 接收到的 WebSocket 消息，包含消息数据和类型。
//
// Return:
//   - None
//
// 返回值说明:
//   - 无
func (h *SyncWSHandler) NoteUpdated(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSNoteUpdatedMessage{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.sync.NoteUpdated.BindAndValid")
		return
	}

	ctx := c.Context()
	uid := c.User.UID

	// 编辑权限门禁：所有者或具备 edit 分享
	canEdit, err := h.App.ShareService.CanUserEdit(ctx, params.NoteID, uid)
	if err != nil {
		h.respondServiceError(c, err, "websocket_router.sync.NoteUpdated.CanUserEdit")
		return
	}
	if !canEdit {
		c.ToResponse(code.ErrorNoteAccessDenied)
		return
	}

	created, version, err := h.App.VersionService.Create(ctx, uid, &dto.VersionCreateRequest{
		NoteID:          params.NoteID,
		Title:           params.Title,
		Body:            params.Body,
		DeviceID:        c.DeviceID,
		ParentVersionID: params.ParentVersionID,
	})
	if err != nil {
		h.respondServiceError(c, err, "websocket_router.sync.NoteUpdated.VersionCreate")
		return
	}

	// 提交视为编辑活动，刷新会话活跃时间
	h.App.EditingService.Touch(params.NoteID, uid, c.DeviceID)

	// 提交回执，去重命中时返回已有版本且不广播
	c.ToResponse(code.Success.WithData(&dto.SyncStatusEventMessage{
		NoteID:       version.NoteID,
		VersionID:    version.ID,
		SyncStatus:   version.SyncStatus,
		Deduplicated: !created,
	}), dto.EventSyncStatus)

	if created {
		event := &dto.NoteUpdatedEventMessage{
			NoteID:         version.NoteID,
			VersionID:      version.ID,
			SequenceNumber: version.SequenceNumber,
			Title:          version.Title,
			EditorUID:      uid,
			DeviceID:       version.DeviceID,
			ContentHash:    version.ContentHash,
			CreatedAt:      version.CreatedAt,
		}

		// 同一用户的其他在线设备
		c.BroadcastResponse(code.Success.WithData(event), true, dto.EventNoteUpdated)

		// 分享关系上的协作者
		h.notifyCollaborators(ctx, c, params.NoteID, uid, dto.EventNoteUpdated, event)
	}

	// 实时碰撞预警：他人正在编辑且服务端当前内容与提交内容不一致
	collision, err := h.App.ConflictService.DetectRealTime(ctx, uid, &dto.RealTimeCheckRequest{
		NoteID:      params.NoteID,
		ContentHash: version.ContentHash,
	})
	if err != nil {
		// 预警失败不影响本次提交
		h.logWarn(c, "websocket_router.sync.NoteUpdated.DetectRealTime", zap.Error(err))
		return
	}
	if collision == nil {
		return
	}

	warn := &dto.ConflictDetectedEventMessage{
		NoteID:      collision.NoteID,
		EditingUIDs: collision.EditingUIDs,
		Message:     collision.Message,
	}
	c.ToResponse(code.Success.WithData(warn), dto.EventConflictDetected)
	for _, editingUID := range collision.EditingUIDs {
		if editingUID == uid {
			continue
		}
		h.pushToUser(editingUID, dto.EventConflictDetected, warn)
	}
}

// UserInfo verifies the authenticated user still exists and selects its display fields
// UserInfo 强制校验认证用户仍然存在，并取出展示字段
func (h *SyncWSHandler) UserInfo(c *pkgapp.WebsocketClient, uid int64) (*pkgapp.UserSelectEntity, error) {

	// Use WebSocket connection's long-lived context
	// 使用 WebSocket 连接的长生命周期 context
	ctx := c.Context()
	user, err := h.App.UserService.Get(ctx, uid)

	var userEntity *pkgapp.UserSelectEntity
	if user != nil {
		userEntity = &pkgapp.UserSelectEntity{}
		if copyErr := convert.StructAssign(userEntity, user); copyErr != nil {
			return nil, copyErr
		}
		userEntity.Nickname = user.Username
	}

	return userEntity, err
}

// ConnectionClosed handles editing session cleanup when a connection drops
// 函数名: ConnectionClosed
// Function name: ConnectionClosed
// usage: Deregisters the editing sessions held by the closed connection, sweeps all remaining sessions when it was the user's last connection, and relays the stop state to the remaining editors.
// 函数使用说明: 注销断开连接持有的编辑会话，该用户最后一个连接断开时清扫其全部会话，并向其余编辑者转发停止状态。
// Parameters:
//   - c *pkgapp.WebsocketClient: Closed WebSocket client connection.
//
// 参数说明:
//   - c *pkgapp.WebsocketClient: 已断开的 WebSocket 客户端连接。
//
// Return:
//   - None
//
// 返回值说明:
//   - 无
func (h *SyncWSHandler) ConnectionClosed(c *pkgapp.WebsocketClient) {
	uid := c.User.UID

	affected := make(map[int64]struct{})
	for noteID, entry := range c.EditingNotesSnapshot() {
		if h.App.EditingService.Stop(noteID, uid, entry.DeviceID) {
			affected[noteID] = struct{}{}
		}
	}
	c.ClearAllEditingNotes()

	// 最后一个连接断开时清扫该用户的全部会话，覆盖未正常注销的设备
	if len(h.WSS.GetUserClients(uid)) == 0 {
		for _, noteID := range h.App.EditingService.StopAllForUser(uid) {
			affected[noteID] = struct{}{}
		}
	}

	for noteID := range affected {
		h.notifyEditors(h.App.EditingService.ActiveEditors(noteID), uid, dto.EventUserEditing, &dto.UserEditingEventMessage{
			NoteID:   noteID,
			UID:      uid,
			DeviceID: c.DeviceID,
			State:    "stop",
		})
	}

	if len(affected) > 0 {
		h.logInfo(c, "websocket_router.sync.ConnectionClosed",
			zap.Int64("uid", uid),
			zap.Int("stoppedNotes", len(affected)))
	}
}

// pushToUser 向某个用户的全部在线连接发送事件
func (h *SyncWSHandler) pushToUser(uid int64, action string, data any) {
	for _, client := range h.WSS.GetUserClients(uid) {
		client.ToResponse(code.Success.Clone().WithData(data), action)
	}
}

// notifyEditors 向会话列表中除 excludeUID 外的用户推送事件，用户去重
func (h *SyncWSHandler) notifyEditors(sessions []*domain.EditingSession, excludeUID int64, action string, data any) {
	seen := make(map[int64]struct{}, len(sessions))
	for _, session := range sessions {
		if session.UID == excludeUID {
			continue
		}
		if _, ok := seen[session.UID]; ok {
			continue
		}
		seen[session.UID] = struct{}{}
		h.pushToUser(session.UID, action, data)
	}
}

// notifyCollaborators 向分享关系上的所有者与分享对象推送事件
// 查询失败时仅记录日志，不影响提交方的回执
func (h *SyncWSHandler) notifyCollaborators(ctx context.Context, c *pkgapp.WebsocketClient, noteID, excludeUID int64, action string, data any) {
	shares, err := h.App.ShareService.ListForNote(ctx, noteID)
	if err != nil {
		h.logWarn(c, "websocket_router.sync.notifyCollaborators", zap.Int64("noteId", noteID), zap.Error(err))
		return
	}

	seen := make(map[int64]struct{}, len(shares)+1)
	for _, share := range shares {
		for _, target := range []int64{share.OwnerUID, share.TargetUID} {
			if target == excludeUID {
				continue
			}
			if _, ok := seen[target]; ok {
				continue
			}
			seen[target] = struct{}{}
			h.pushToUser(target, action, data)
		}
	}
}
