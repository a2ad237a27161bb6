package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

// 验证缺少凭证时隧道在任何网络动作前被拒绝

func TestTunnelServiceRequiresAuthToken(t *testing.T) {
	svc := NewTunnelService(zap.NewNop(), "", "")

	if err := svc.Start(context.Background(), "127.0.0.1:8000"); err == nil {
		t.Fatal("expected error when auth token is missing")
	}
	if got := svc.PublicURL(); got != "" {
		t.Errorf("public url = %q, want empty before a tunnel is established", got)
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Errorf("Stop() on an unstarted tunnel returned %v", err)
	}
}
