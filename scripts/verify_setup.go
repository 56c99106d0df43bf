package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  ProductSelector Go版本环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)

	// 检查Go版本是否满足要求
	if !strings.HasPrefix(goVersion, "go1.23") &&
		!strings.HasPrefix(goVersion, "go1.24") {
		fmt.Println("⚠️  警告: 建议使用Go 1.23+版本")
	}

	// 检查操作系统
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查浏览器(rod需要Chrome/Chromium,未安装时会自动下载)
	browserFound := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome"} {
		if checkCommand(name, "--version") {
			fmt.Printf("✅ 浏览器已安装: %s\n", name)
			browserFound = true
			break
		}
	}
	if !browserFound {
		fmt.Println("⚠️  未检测到Chrome/Chromium - rod将在首次运行时自动下载浏览器")
	}

	// 检查日志目录可写
	if err := os.MkdirAll("logs", 0755); err != nil {
		fmt.Printf("❌ 日志目录不可写: %v\n", err)
		allOK = false
	} else {
		fmt.Println("✅ 日志目录可写")
	}

	// 检查输出目录可写
	if err := os.MkdirAll("output", 0755); err != nil {
		fmt.Printf("❌ 输出目录不可写: %v\n", err)
		allOK = false
	} else {
		fmt.Println("✅ 输出目录可写")
	}

	fmt.Println()
	if allOK {
		fmt.Println("✨ 环境验证通过,可以开始使用!")
		fmt.Println("   运行: go run ./cmd/productselector -u https://example.com")
	} else {
		fmt.Println("❌ 环境验证未通过,请修复上述问题")
		os.Exit(1)
	}
}

// checkCommand 检查命令是否可执行
func checkCommand(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
