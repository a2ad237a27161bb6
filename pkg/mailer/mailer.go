// Package mailer 基于 SMTP 的邮件通知发送
// 用于冲突检测等事件的邮件提醒
package mailer

import (
	"crypto/tls"
	"errors"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// 错误定义
var (
	// ErrMailerDisabled 当邮件通知未启用时返回
	ErrMailerDisabled = errors.New("mailer is disabled")
	// ErrNoRecipients 当收件人列表为空时返回
	ErrNoRecipients = errors.New("no recipients specified")
)

// Config 邮件发送配置
type Config struct {
	// Enable 是否启用邮件通知
	Enable bool
	// Host SMTP 服务器地址
	Host string
	// Port SMTP 服务器端口，默认 587
	Port int
	// Username SMTP 认证用户名
	Username string
	// Password SMTP 认证密码
	Password string
	// From 发件人地址
	From string
	// FromName 发件人显示名称
	FromName string
	// SkipTLSVerify 是否跳过 TLS 证书校验
	SkipTLSVerify bool
}

// Mailer SMTP 邮件发送器
type Mailer struct {
	config Config
	dialer *gomail.Dialer
	logger *zap.Logger
}

// New 创建邮件发送器
func New(cfg Config, logger *zap.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.SkipTLSVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Mailer{
		config: cfg,
		dialer: d,
		logger: logger,
	}
}

// Enabled 返回邮件通知是否启用
func (m *Mailer) Enabled() bool {
	return m.config.Enable && m.config.Host != ""
}

// Send sends an HTML mail to the recipients
// Send 发送 HTML 邮件
func (m *Mailer) Send(to []string, subject string, htmlBody string) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}
	if len(to) == 0 {
		return ErrNoRecipients
	}

	msg := gomail.NewMessage()
	if m.config.FromName != "" {
		msg.SetHeader("From", msg.FormatAddress(m.config.From, m.config.FromName))
	} else {
		msg.SetHeader("From", m.config.From)
	}
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("mail send failed",
			zap.String("subject", subject),
			zap.Int("recipients", len(to)),
			zap.Error(err))
		return err
	}

	m.logger.Info("mail sent",
		zap.String("subject", subject),
		zap.Int("recipients", len(to)))
	return nil
}
