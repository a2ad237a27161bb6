package util

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineIDOnce   sync.Once
	cachedMachineID string
)

// GetMachineID 获取当前机器的唯一标识，用于加盐 Token 密钥
// 优先走 machineid 库，失败时回退到主板序列号；全部失败返回空串，
// 调用方需自行处理空值
func GetMachineID() string {
	machineIDOnce.Do(func() {
		if id, err := machineid.ID(); err == nil && id != "" {
			cachedMachineID = id
			return
		}
		if id, err := motherboardSerial(); err == nil && id != "" {
			cachedMachineID = id
		}
	})
	return cachedMachineID
}

// motherboardSerial 按平台读取主板序列号
func motherboardSerial() (string, error) {
	switch runtime.GOOS {
	case "linux":
		content, err := os.ReadFile("/sys/class/dmi/id/board_serial")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(content)), nil
	case "windows":
		out, err := exec.Command("wmic", "baseboard", "get", "serialnumber").Output()
		if err != nil {
			return "", err
		}
		return firstSerialLine(string(out)), nil
	default:
		// darwin 需要解析 ioreg 输出，machineid 失败时直接放弃
		return "", errors.New("motherboard serial not supported on " + runtime.GOOS)
	}
}

// firstSerialLine 取 wmic 输出中表头之后的第一个非空行
func firstSerialLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "SerialNumber") {
			continue
		}
		return line
	}
	return ""
}
