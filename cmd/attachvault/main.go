// Package main 启动应用程序
package main

import "github.com/yeisme/attachvault/pkg/cmd"

//	@title			AttachVault API
//	@version		1.0
//	@description	AttachVault 附件存储服务，管理存储引擎、上传校验、附件记录与删除.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
