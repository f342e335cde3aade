// Package main 启动 pastevault 服务与运维命令.
package main

import (
	"os"

	"github.com/yeisme/pastevault/pkg/cmd"
)

//	@title			PasteVault API
//	@version		1.0
//	@description	PasteVault 是一个匿名的粘贴与文件分享服务，支持访问密码、访问次数限制、过期时间和大文件预签名直传。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
