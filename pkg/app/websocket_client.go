package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	// ClientReconnectBaseDelay 重连基础等待时间
	ClientReconnectBaseDelay = 1 * time.Second
	// ClientReconnectMaxAttempts 重连最大尝试次数，超过后放弃
	ClientReconnectMaxAttempts = 5
)

// ErrClientClosed 客户端已主动关闭
var ErrClientClosed = errors.New("websocket client is closed")

// ErrClientNotConnected 客户端当前未连接
var ErrClientNotConnected = errors.New("websocket client is not connected")

// ClientState 客户端连接状态
type ClientState int32

const (
	ClientDisconnected ClientState = iota
	ClientConnecting
	ClientConnected
	ClientClosed
)

func (s ClientState) String() string {
	switch s {
	case ClientDisconnected:
		return "disconnected"
	case ClientConnecting:
		return "connecting"
	case ClientConnected:
		return "connected"
	case ClientClosed:
		return "closed"
	}
	return "unknown"
}

// WebsocketClientConfig 客户端配置
type WebsocketClientConfig struct {
	// Addr 服务端地址，例如 ws://127.0.0.1:9000/api/user/sync
	Addr string
	// Token 用户认证 Token，连接建立后通过 Authorization 动作发送
	Token string
	// DeviceID 设备标识，连接建立后通过 DeviceRegister 动作上报
	DeviceID string
	// ReconnectBaseDelay 重连基础等待时间，后续每次翻倍
	ReconnectBaseDelay time.Duration
	// ReconnectMaxAttempts 重连最大尝试次数
	ReconnectMaxAttempts int
}

// ReconnectingClient 带自动重连的 WebSocket 客户端
// 非主动断开后按 base, 2*base, 4*base ... 的节奏重连，
// 尝试次数到达上限后放弃并进入 closed 状态。
// 重连由定时器驱动，不阻塞调用方。
type ReconnectingClient struct {
	config WebsocketClientConfig
	logger *zap.Logger

	mu       sync.Mutex
	conn     *gws.Conn
	attempts int

	state atomic.Int32

	handlers     map[string]func([]byte)
	stateHandler func(ClientState)

	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewReconnectingClient 创建客户端实例，logger 为 nil 时使用 nop logger
func NewReconnectingClient(cfg WebsocketClientConfig, logger *zap.Logger) *ReconnectingClient {
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = ClientReconnectBaseDelay
	}
	if cfg.ReconnectMaxAttempts <= 0 {
		cfg.ReconnectMaxAttempts = ClientReconnectMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ReconnectingClient{
		config:   cfg,
		logger:   logger,
		handlers: make(map[string]func([]byte)),
		closeCh:  make(chan struct{}),
	}
	c.state.Store(int32(ClientDisconnected))
	return c
}

// ReconnectDelay 计算第 attempt 次重连前的等待时间（attempt 从 1 开始）
// 等待时间按 2 的幂增长：base, 2*base, 4*base ...
func ReconnectDelay(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return base
	}
	return base << uint(attempt-1)
}

// Use 注册一个动作处理函数，服务端消息格式为 "Action|{json}"
func (c *ReconnectingClient) Use(action string, handler func(data []byte)) {
	c.handlers[action] = handler
}

// StateUse 注册状态变化回调
func (c *ReconnectingClient) StateUse(handler func(ClientState)) {
	c.stateHandler = handler
}

// State 返回当前连接状态
func (c *ReconnectingClient) State() ClientState {
	return ClientState(c.state.Load())
}

func (c *ReconnectingClient) setState(s ClientState) {
	c.state.Store(int32(s))
	if c.stateHandler != nil {
		c.stateHandler(s)
	}
}

// Connect 建立连接并完成认证与设备注册
func (c *ReconnectingClient) Connect() error {
	select {
	case <-c.closeCh:
		return ErrClientClosed
	default:
	}

	c.setState(ClientConnecting)

	if err := c.dial(); err != nil {
		c.setState(ClientDisconnected)
		return err
	}

	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()

	c.setState(ClientConnected)
	return nil
}

func (c *ReconnectingClient) dial() error {
	handler := &clientEventHandler{client: c}
	socket, _, err := gws.NewClient(handler, &gws.ClientOption{
		Addr: c.config.Addr,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = socket
	c.mu.Unlock()

	go socket.ReadLoop()

	// 连接建立后先认证，再上报设备
	if err := c.Send("Authorization", []byte(c.config.Token)); err != nil {
		return err
	}
	if c.config.DeviceID != "" {
		if err := c.SendJSON("DeviceRegister", map[string]string{"deviceId": c.config.DeviceID}); err != nil {
			return err
		}
	}
	return nil
}

// Send 发送一个动作消息
func (c *ReconnectingClient) Send(action string, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || c.State() != ClientConnected && c.State() != ClientConnecting {
		return ErrClientNotConnected
	}
	payload := []byte(fmt.Sprintf("%s|%s", action, string(data)))
	return conn.WriteMessage(gws.OpcodeText, payload)
}

// SendJSON 将 v 序列化为 JSON 后发送
func (c *ReconnectingClient) SendJSON(action string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(action, data)
}

// Close 主动关闭连接，不再重连
func (c *ReconnectingClient) Close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.WriteClose(1000, []byte("ClientClose"))
	}
	c.setState(ClientClosed)
}

// onDisconnect 非主动断开，调度重连
func (c *ReconnectingClient) onDisconnect(err error) {
	select {
	case <-c.closeCh:
		// 主动关闭，不重连
		return
	default:
	}

	c.setState(ClientDisconnected)

	c.mu.Lock()
	c.conn = nil
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	if attempt > c.config.ReconnectMaxAttempts {
		c.logger.Error("websocket client reconnect attempts exhausted",
			zap.Int("attempts", attempt-1),
			zap.Error(err))
		c.Close()
		return
	}

	delay := ReconnectDelay(c.config.ReconnectBaseDelay, attempt)
	c.logger.Warn("websocket client disconnected, scheduling reconnect",
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.Error(err))

	time.AfterFunc(delay, func() {
		select {
		case <-c.closeCh:
			return
		default:
		}
		if err := c.Connect(); err != nil {
			c.onDisconnect(err)
		}
	})
}

// dispatch 按 "Action|{json}" 分发消息
func (c *ReconnectingClient) dispatch(message string) {
	index := strings.Index(message, "|")
	if index == -1 {
		c.logger.Warn("websocket client received message without action", zap.String("message", message))
		return
	}
	action := message[:index]
	data := []byte(message[index+1:])

	handler, ok := c.handlers[action]
	if !ok {
		c.logger.Debug("websocket client no handler for action", zap.String("action", action))
		return
	}
	handler(data)
}

// clientEventHandler 将 gws 事件转发给 ReconnectingClient
type clientEventHandler struct {
	gws.BuiltinEventHandler
	client *ReconnectingClient
}

func (h *clientEventHandler) OnClose(socket *gws.Conn, err error) {
	h.client.onDisconnect(err)
}

func (h *clientEventHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(nil)
}

func (h *clientEventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	h.client.dispatch(message.Data.String())
}
