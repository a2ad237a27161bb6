package util

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// GetOSPrettyName 获取可读的操作系统名称及版本，用于管理端系统信息展示
func GetOSPrettyName() string {
	switch runtime.GOOS {
	case "linux":
		return linuxPrettyName()
	case "windows":
		return windowsVersion()
	case "darwin":
		return macOSVersion()
	default:
		return runtime.GOOS
	}
}

// linuxPrettyName 读取 /etc/os-release 的 PRETTY_NAME
func linuxPrettyName() string {
	file, err := os.Open("/etc/os-release")
	if err != nil {
		return "Linux"
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
		}
	}
	return "Linux"
}

func windowsVersion() string {
	out, err := exec.Command("cmd", "/c", "ver").Output()
	if err != nil {
		return "Windows"
	}
	return strings.TrimSpace(string(out))
}

func macOSVersion() string {
	out, err := exec.Command("sw_vers", "-productVersion").Output()
	if err != nil {
		return "macOS"
	}
	return "macOS " + strings.TrimSpace(string(out))
}
