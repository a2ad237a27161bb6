package local_fs

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// SendFile 将文件保存到本地存储路径
func (p *LocalFS) SendFile(fileKey string, file io.Reader, cType string, modTime time.Time) (string, error) {

	dstFileKey := p.getSavePath() + fileKey

	if err := os.MkdirAll(filepath.Dir(dstFileKey), 0754); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}

	dstFile, err := os.Create(dstFileKey)
	if err != nil {
		return "", errors.Wrap(err, "local_fs")
	}

	if _, err := io.Copy(dstFile, file); err != nil {
		dstFile.Close()
		return "", errors.Wrap(err, "local_fs")
	}
	if err := dstFile.Close(); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}

	if !modTime.IsZero() {
		if err := os.Chtimes(dstFileKey, modTime, modTime); err != nil {
			return "", errors.Wrap(err, "local_fs")
		}
	}

	return dstFileKey, nil
}

// SendContent 将二进制内容保存到本地存储路径
func (p *LocalFS) SendContent(fileKey string, content []byte, modTime time.Time) (string, error) {

	dstFileKey := p.getSavePath() + fileKey

	if err := os.MkdirAll(filepath.Dir(dstFileKey), 0754); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}

	if err := os.WriteFile(dstFileKey, content, 0644); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}

	if !modTime.IsZero() {
		if err := os.Chtimes(dstFileKey, modTime, modTime); err != nil {
			return "", errors.Wrap(err, "local_fs")
		}
	}

	return dstFileKey, nil
}
