package local_fs

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLocalFS_SendFile(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}

	content := "backup archive payload"
	modTime := time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)

	savedPath, err := client.SendFile("backup.zip", strings.NewReader(content), "application/zip", modTime)
	if err != nil {
		t.Fatalf("SendFile() = %v", err)
	}

	saved, err := os.ReadFile(savedPath)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(saved) != content {
		t.Errorf("saved content = %q, want %q", saved, content)
	}

	assertModTime(t, savedPath, modTime)
}

func TestLocalFS_SendContentCreatesDirs(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}

	content := []byte("nested export")
	modTime := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	// 子目录不存在时应自动创建
	savedPath, err := client.SendContent("exports/2024/notes.json", content, modTime)
	if err != nil {
		t.Fatalf("SendContent() = %v", err)
	}

	saved, err := os.ReadFile(savedPath)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if !bytes.Equal(saved, content) {
		t.Errorf("saved content = %q, want %q", saved, content)
	}

	assertModTime(t, savedPath, modTime)
}

// assertModTime 文件系统时间精度不一，允许 1 秒内偏差
func assertModTime(t *testing.T, path string, want time.Time) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat saved file: %v", err)
	}
	if diff := info.ModTime().Sub(want); diff < -time.Second || diff > time.Second {
		t.Errorf("mod time = %v, want %v (diff %v)", info.ModTime(), want, diff)
	}
}
