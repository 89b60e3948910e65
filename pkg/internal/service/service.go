// Package service 实现存储引擎注册表、附件记录管理和删除协调，不处理 HTTP 细节.
//
// 服务按请求创建，依赖从 context 中的 storage.Manager 获取:
//
//	svc := service.NewAttachmentService(c.Request.Context())
//	att, err := svc.Create(ctx, service.Upload{Reader: f, Filename: "text.txt", Size: 13})
package service

import (
	"context"

	"github.com/yeisme/attachvault/pkg/configs"
	ctxPkg "github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/internal/storage/db"
	"github.com/yeisme/attachvault/pkg/internal/storage/kv"
	"github.com/yeisme/attachvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/attachvault/pkg/log"
)

// deps 服务共享的存储客户端和配置.
type deps struct {
	db  *db.Client
	kv  *kv.Client
	mq  *mq.Client
	cfg *configs.AppConfig
}

func depsFrom(c context.Context) deps {
	d := deps{
		db:  ctxPkg.GetDBClient(c),
		kv:  ctxPkg.GetKVClient(c),
		mq:  ctxPkg.GetMQClient(c),
		cfg: configs.GetConfig(),
	}

	// 依赖缺失属于启动错误，直接退出，调用方不需要再检查
	if d.db == nil || d.db.DB == nil || d.kv == nil || d.kv.KVStore == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return d
}
