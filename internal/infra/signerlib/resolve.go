package signerlib

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ResolvePath 根据当前平台与架构在 dir 下定位 signer 动态库。
func ResolvePath(dir string) (string, error) {
	name, err := libraryName(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("signer library missing: %s", path)
	}
	return path, nil
}

// libraryName 返回平台对应的动态库文件名。Linux 侧上游只发布
// amd64 版本，其余架构按缺失处理。
func libraryName(goos, goarch string) (string, error) {
	switch goos {
	case "darwin":
		if goarch == "arm64" {
			return "signer-arm64.dylib", nil
		}
		return "signer-amd64.dylib", nil
	case "linux":
		if goarch != "amd64" {
			return "", fmt.Errorf("unsupported platform: %s %s", goos, goarch)
		}
		return "signer-amd64.so", nil
	default:
		return "", fmt.Errorf("unsupported platform: %s %s", goos, goarch)
	}
}
