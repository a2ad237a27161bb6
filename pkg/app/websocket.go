package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/notesphere/note-sync-service/global"
	"github.com/notesphere/note-sync-service/pkg/code"
	"golang.org/x/sync/singleflight"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

type LogType string

const (
	WebSocketServerPingInterval         = 25
	WebSocketServerPingWait             = 40
	LogInfo                     LogType = "info"
	LogError                    LogType = "error"
	LogWarn                     LogType = "warn"
)

func log(t LogType, msg string, fields ...zap.Field) {

	if t == "error" {
		global.Logger.Error(msg, fields...)
	} else if t == "warn" {
		global.Logger.Warn(msg, fields...)
	} else if t == "info" {
		global.Logger.Info(msg, fields...)

	}
}

// WebSocketMessage 客户端消息，格式为 "action|{json}"
type WebSocketMessage struct {
	Type string `json:"type"` // 操作类型，例如 "note_updated", "start_editing"
	Data []byte `json:"data"` // 消息负载
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// EditingEntry 记录一个连接上处于编辑状态的笔记
type EditingEntry struct {
	DeviceID  string
	StartedAt time.Time
}

// Res 的 WebSocket 变体，消息体使用 msg 字段
type ResResult struct {
	Code   int         `json:"code"`
	Status bool        `json:"status"`
	Msg    interface{} `json:"msg,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

type ResDetailsResult struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Msg     interface{} `json:"msg,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// WebsocketClient 结构体来存储每个 WebSocket 连接及其相关状态
type WebsocketClient struct {
	conn          *gws.Conn
	done          chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
	Ctx           *gin.Context
	User          *UserEntity
	DeviceID      string
	ClientName    string
	ClientVersion string
	TraceID       string
	UserClients   *ConnStorage
	SF            *singleflight.Group // 用于处理并发请求的缓存

	// EditingNotes 记录该连接正在编辑的笔记，key 为笔记 ID
	EditingNotes   map[int64]EditingEntry
	EditingNotesMu sync.RWMutex
}

// Context 返回连接生命周期绑定的 context，连接关闭后即取消
func (c *WebsocketClient) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// 基于全局验证器的 WebSocket 版本参数绑定和验证工具函数
func (c *WebsocketClient) BindAndValid(data []byte, obj any) (bool, ValidErrors) {
	var errs ValidErrors

	// Step 1: JSON 反序列化
	if err := json.Unmarshal(data, obj); err != nil {
		errs = append(errs, &ValidError{
			Key:     "body",
			Message: "Invalid message format",
		})
		return false, errs
	}

	// Step 2: 参数验证
	if err := global.Validator.Validate.Struct(obj); err != nil {

		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			v := c.Ctx.Value("trans")
			trans, transOk := v.(ut.Translator)
			if !transOk {
				for _, validationErr := range validationErrors {
					errs = append(errs, &ValidError{
						Key:     validationErr.Field(),
						Message: validationErr.Error(),
					})
				}
				return false, errs
			}

			for _, validationErr := range validationErrors {
				errs = append(errs, &ValidError{
					Key:     validationErr.Field(),
					Message: validationErr.Translate(trans),
				})
			}
		}
		return false, errs
	}
	return true, nil
}

// MarkEditing 标记该连接正在编辑某个笔记
func (c *WebsocketClient) MarkEditing(noteID int64, deviceID string) {
	c.EditingNotesMu.Lock()
	defer c.EditingNotesMu.Unlock()
	if c.EditingNotes == nil {
		c.EditingNotes = make(map[int64]EditingEntry)
	}
	c.EditingNotes[noteID] = EditingEntry{DeviceID: deviceID, StartedAt: time.Now()}
}

// UnmarkEditing 原子地检查并去除编辑标记，返回标记是否存在
func (c *WebsocketClient) UnmarkEditing(noteID int64) bool {
	c.EditingNotesMu.Lock()
	defer c.EditingNotesMu.Unlock()
	_, ok := c.EditingNotes[noteID]
	if ok {
		delete(c.EditingNotes, noteID)
	}
	return ok
}

// CleanupExpiredEditingNotes 清理超过编辑窗口的标记，返回清理数量
func (c *WebsocketClient) CleanupExpiredEditingNotes(window time.Duration) int {
	c.EditingNotesMu.Lock()
	defer c.EditingNotesMu.Unlock()

	cleaned := 0
	now := time.Now()
	for noteID, entry := range c.EditingNotes {
		if now.Sub(entry.StartedAt) > window {
			delete(c.EditingNotes, noteID)
			cleaned++
		}
	}
	return cleaned
}

// EditingNotesSnapshot 返回当前编辑标记的副本
func (c *WebsocketClient) EditingNotesSnapshot() map[int64]EditingEntry {
	c.EditingNotesMu.RLock()
	defer c.EditingNotesMu.RUnlock()

	snapshot := make(map[int64]EditingEntry, len(c.EditingNotes))
	for noteID, entry := range c.EditingNotes {
		snapshot[noteID] = entry
	}
	return snapshot
}

// ClearAllEditingNotes 去除所有编辑标记，返回清理数量
func (c *WebsocketClient) ClearAllEditingNotes() int {
	c.EditingNotesMu.Lock()
	defer c.EditingNotesMu.Unlock()

	count := len(c.EditingNotes)
	for noteID := range c.EditingNotes {
		delete(c.EditingNotes, noteID)
	}
	return count
}

// 定期发送 Ping 消息
func (c *WebsocketClient) PingLoop(PingInterval time.Duration) {
	ticker := time.NewTicker(PingInterval * time.Second) // 每 25 秒发送一次 Ping
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			log(LogInfo, "WebsocketServer Client Close Ping")
			return
		case <-ticker.C:
			if c.conn == nil {
				return
			}
			if err := c.conn.WritePing(nil); err != nil {
				log(LogError, "WebsocketServer Client Ping err ", zap.Error(err))
				return
			}
		}
	}
}

// ToResponse 将结果转换为 JSON 格式并发送给客户端
func (c *WebsocketClient) ToResponse(code *code.Code, action ...string) {

	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}
	if code.HaveDetails() {
		details := strings.Join(code.Details(), ",")
		c.send(actionType, ResDetailsResult{
			Code:    code.Code(),
			Status:  code.Status(),
			Msg:     code.Lang.GetMessage(),
			Data:    code.Data(),
			Details: details,
		}, false, false)
	} else {
		// 不带动作的裸 Success 回执不下发，其余成功码与错误码均回传
		if actionType != "" || !code.Status() || code.Code() > 1 || code.HaveData() {
			c.send(actionType, ResResult{
				Code:   code.Code(),
				Status: code.Status(),
				Msg:    code.Lang.GetMessage(),
				Data:   code.Data(),
			}, false, false)
		}
	}
	code.Reset()
}

// BroadcastResponse 将结果转换为 JSON 格式并广播给同一用户的所有客户端
// 第一个 options 参数为是否排除自己 第二个 options 参数为动作类型
func (c *WebsocketClient) BroadcastResponse(code *code.Code, options ...any) {

	var actionType string
	if len(options) > 1 {
		actionType = options[1].(string)
	}

	if code.HaveDetails() {
		details := strings.Join(code.Details(), ",")
		c.send(actionType, ResDetailsResult{
			Code:    code.Code(),
			Status:  code.Status(),
			Msg:     code.Lang.GetMessage(),
			Data:    code.Data(),
			Details: details,
		}, true, options[0].(bool))
	} else {
		c.send(actionType, ResResult{
			Code:   code.Code(),
			Status: code.Status(),
			Msg:    code.Lang.GetMessage(),
			Data:   code.Data(),
		}, true, options[0].(bool))
	}

	code.Reset()
}

func (c *WebsocketClient) send(actionType string, content any, isBroadcast bool, isExcludeSelf bool) {
	responseBytes, _ := json.Marshal(content)
	if actionType != "" {
		responseBytes = []byte(fmt.Sprintf(`%s|%s`, actionType, string(responseBytes)))
	}
	if isBroadcast {
		c.broadcast(responseBytes, isExcludeSelf)
	} else {
		c.message(responseBytes)
	}
}

func (c *WebsocketClient) message(payload []byte) {
	c.conn.WriteMessage(gws.OpcodeText, payload)
}

func (c *WebsocketClient) broadcast(payload []byte, isExcludeSelf bool) {
	var b = gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	for _, uc := range *c.UserClients {
		if uc.conn == nil {
			continue
		}
		if isExcludeSelf && uc.conn == c.conn {
			continue
		}

		_ = b.Broadcast(uc.conn)
	}
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

type WebsocketServer struct {
	handlers        map[string]func(*WebsocketClient, *WebSocketMessage)
	authParser      func(token string) (*UserEntity, error)
	userDataHandler func(*WebsocketClient, int64) (*UserSelectEntity, error)
	closeHandler    func(*WebsocketClient)
	clients         ConnStorage
	userClients     map[int64]ConnStorage
	mu              sync.Mutex
	up              *gws.Upgrader
	config          *WebsocketServerConfig
}

func NewWebsocketServer(c WebsocketServerConfig) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	wss := WebsocketServer{
		handlers:    make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		clients:     make(ConnStorage),
		userClients: make(map[int64]ConnStorage),
		config:      &c,
	}
	return &wss
}

func (w *WebsocketServer) Upgrade() {
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
}

func (w *WebsocketServer) Run() gin.HandlerFunc {

	return func(c *gin.Context) {

		w.Upgrade()
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			log(LogError, "WebsocketServer Start err", zap.Error(err))
			return
		}
		traceID, _ := c.Value("trace_id").(string)
		ctx, cancel := context.WithCancel(context.Background())
		client := &WebsocketClient{
			conn:         socket,
			done:         make(chan struct{}),
			ctx:          ctx,
			cancel:       cancel,
			Ctx:          c,
			TraceID:      traceID,
			SF:           new(singleflight.Group),
			EditingNotes: make(map[int64]EditingEntry),
		}
		w.AddClient(client)
		log(LogInfo, "WebsocketServer Start", zap.String("type", "ReadLoop"))
		go socket.ReadLoop()
	}
}

func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

// AuthUse 注册 Token 解析函数，Authorization 动作依赖它
func (w *WebsocketServer) AuthUse(parser func(token string) (*UserEntity, error)) {
	w.authParser = parser
}

func (w *WebsocketServer) UserDataSelectUse(handler func(*WebsocketClient, int64) (*UserSelectEntity, error)) {
	w.userDataHandler = handler
}

// CloseUse 注册连接断开时的回调，仅对已认证连接触发
func (w *WebsocketServer) CloseUse(handler func(*WebsocketClient)) {
	w.closeHandler = handler
}

func (w *WebsocketServer) Authorization(c *WebsocketClient, msg *WebSocketMessage) {

	if w.authParser == nil {
		log(LogError, "WebsocketServer Authorization FAILD", zap.String("msg", "no auth parser registered"))
		c.ToResponse(code.ErrorInvalidUserAuthToken.Clone(), "Authorization")
		c.conn.WriteClose(1000, []byte("AuthorizationFaild"))
		return
	}

	user, err := w.authParser(string(msg.Data))
	if err != nil {
		log(LogError, "WebsocketServer Authorization FAILD", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken.Clone(), "Authorization")
		time.Sleep(2 * time.Second)
		c.conn.WriteClose(1000, []byte("AuthorizationFaild"))
		return
	}

	// 用户有效性强制验证
	userSelect, err := w.userDataHandler(c, user.UID)
	if userSelect == nil || err != nil {
		log(LogError, "WebsocketServer Authorization FAILD USER Not Exist", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken.Clone(), "Authorization")
		time.Sleep(2 * time.Second)
		c.conn.WriteClose(1000, []byte("AuthorizationFaild"))
		return
	}

	user.Nickname = userSelect.Nickname

	log(LogInfo, "WebsocketServer Authorization", zap.Int64("uid", user.UID), zap.String("Nickname", user.Nickname))
	c.User = user
	w.AddUserClient(c)

	userClients := w.userClients[user.UID]

	c.UserClients = &userClients
	c.ToResponse(code.Success.Clone(), "Authorization")
	log(LogInfo, "WebsocketServer User Enters", zap.Int64("uid", c.User.UID), zap.String("Nickname", c.User.Nickname), zap.Int("Count", len(userClients)))
	go c.PingLoop(w.config.PingInterval)
}

func (w *WebsocketServer) GetClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clients[conn]
}

// GetUserClients 返回某个用户当前的所有连接
func (w *WebsocketServer) GetUserClients(uid int64) []*WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	var list []*WebsocketClient
	for _, c := range w.userClients[uid] {
		list = append(list, c)
	}
	return list
}

// ClientCount 返回当前连接总数
func (w *WebsocketServer) ClientCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.clients)
}

func (w *WebsocketServer) AddClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) RemoveClient(conn *gws.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.clients, conn)
}

func (w *WebsocketServer) AddUserClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.userClients[c.User.UID] == nil {
		w.userClients[c.User.UID] = make(ConnStorage)
	}
	w.userClients[c.User.UID][c.conn] = c
}

func (w *WebsocketServer) RemoveUserClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.userClients[c.User.UID], c.conn)
	log(LogInfo, "WebsocketServer Client Remove", zap.Int("userCount", len(w.clients)))
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	log(LogInfo, "WebsocketServer Client Connect", zap.Int("Count", len(w.clients)))
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {

	c := w.GetClient(conn)

	w.RemoveClient(conn)

	if c == nil {
		return
	}

	close(c.done)
	if c.cancel != nil {
		c.cancel()
	}

	if c.User != nil {
		log(LogInfo, "WebsocketServer User Leave", zap.Int64("uid", c.User.UID))
		w.RemoveUserClient(c)
		if w.closeHandler != nil {
			w.closeHandler(c)
		}
	}

	log(LogInfo, "WebsocketServer Client Leave", zap.Int("Count", len(w.clients)))

}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	if message.Data.String() == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.GetClient(conn)
	if c == nil {
		return
	}

	messageStr := message.Data.String()
	// 使用 strings.Index 找到分隔符的位置
	index := strings.Index(messageStr, "|")

	var msg WebSocketMessage
	if index != -1 {
		msg.Type = messageStr[:index]           // 提取分隔符之前的部分
		msg.Data = []byte(messageStr[index+1:]) // 提取分隔符之后的部分
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("type", "Illegal message type"))
		return
	}

	if msg.Type == "Authorization" {
		w.Authorization(c, &msg)
		return
	}

	// 验证用户是否登录
	if c.User == nil {
		c.ToResponse(code.ErrorNotUserAuthToken.Clone())
		return
	}

	// 执行操作
	handler, exists := w.handlers[msg.Type]
	if exists {
		log(LogInfo, "WebsocketServer OnMessage", zap.String("Type", msg.Type))
		handler(c, &msg)
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("msg", "Unknown message type"))
	}
}
