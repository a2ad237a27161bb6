package service

import (
	"context"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"
	"golang.ngrok.com/ngrok/v2"
)

// TunnelService 通过 ngrok 隧道把本地服务暴露到公网
// 多端客户端无需公网部署即可接入同步服务
type TunnelService interface {
	// Start 建立隧道并把入站连接转发到 addr
	Start(ctx context.Context, addr string) error

	// Stop 关闭隧道并断开 agent
	Stop(ctx context.Context) error

	// PublicURL 返回当前隧道的公网地址
	PublicURL() string
}

type tunnelService struct {
	logger    *zap.Logger
	authToken string
	domain    string
	listener  net.Listener
	publicURL string
	agent     ngrok.Agent
}

// NewTunnelService 创建 TunnelService 实例
func NewTunnelService(logger *zap.Logger, authToken, domain string) TunnelService {
	return &tunnelService{
		logger:    logger,
		authToken: authToken,
		domain:    domain,
	}
}

// Start 建立隧道并把入站连接转发到 addr
func (s *tunnelService) Start(ctx context.Context, addr string) error {
	if s.authToken == "" {
		return fmt.Errorf("ngrok auth token is required")
	}

	agent, err := ngrok.NewAgent(ngrok.WithAuthtoken(s.authToken))
	if err != nil {
		return fmt.Errorf("failed to create ngrok agent: %w", err)
	}
	s.agent = agent

	var endpointOpts []ngrok.EndpointOption
	if s.domain != "" {
		endpointOpts = append(endpointOpts, ngrok.WithURL("https://"+s.domain))
	}

	ln, err := agent.Listen(ctx, endpointOpts...)
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}
	s.listener = ln

	if u := ln.URL(); u != nil {
		s.publicURL = u.String()
	} else {
		s.publicURL = ln.Addr().String()
	}

	s.logger.Info("ngrok tunnel established", zap.String("url", s.publicURL))

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				s.logger.Debug("ngrok tunnel accept error (likely closed)", zap.Error(err))
				return
			}
			go s.forward(conn, addr)
		}
	}()

	return nil
}

// forward 在隧道连接与本地服务之间双向转发
func (s *tunnelService) forward(conn net.Conn, addr string) {
	defer conn.Close()
	localConn, err := net.Dial("tcp", addr)
	if err != nil {
		s.logger.Error("failed to dial local address", zap.String("addr", addr), zap.Error(err))
		return
	}
	defer localConn.Close()

	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(localConn, conn)
		done <- struct{}{}
	}()
	go func() {
		_, _ = io.Copy(conn, localConn)
		done <- struct{}{}
	}()
	<-done
}

// Stop 关闭隧道并断开 agent
func (s *tunnelService) Stop(ctx context.Context) error {
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}
	if s.agent != nil {
		if err := s.agent.Disconnect(); err != nil {
			s.logger.Warn("failed to disconnect ngrok agent", zap.Error(err))
		}
	}
	return nil
}

// PublicURL 返回当前隧道的公网地址
func (s *tunnelService) PublicURL() string {
	return s.publicURL
}

var _ TunnelService = (*tunnelService)(nil)
