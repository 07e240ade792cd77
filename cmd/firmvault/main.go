// Package main 启动应用程序
package main

import "github.com/yeisme/firmvault/pkg/cmd"

//	@title			FirmVault API
//	@version		1.0
//	@description	FirmVault 是一个自托管的文件版本注册中心，应用按唯一标识注册后上传命名版本，对外提供最新版本查询与文件下载。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
