// Package service 实现注册表业务逻辑（应用、版本、密钥、审计、统计），不处理 HTTP 细节.
package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	ctxPkg "github.com/yeisme/firmvault/pkg/context"
	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/storage/blob"
	"github.com/yeisme/firmvault/pkg/internal/storage/db"
	"github.com/yeisme/firmvault/pkg/internal/storage/kv"
	"github.com/yeisme/firmvault/pkg/internal/storage/mq"
	flog "github.com/yeisme/firmvault/pkg/log"
)

// registryService 聚合存储依赖，供各业务服务嵌入.
type registryService struct {
	dbc  *db.Client
	blob blob.Store
	kvc  *kv.Client
	mqc  *mq.Client
}

// newRegistryService 从 context 获取依赖实例.
func newRegistryService(c context.Context) registryService {
	dbc := ctxPkg.GetDBClient(c)
	bs := ctxPkg.GetBlobStore(c)

	// 为了安全起见，应该直接 panic 而不是返回 nil，依赖此服务就不需要再检查
	if dbc == nil || dbc.DB == nil || bs == nil {
		flog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return registryService{
		dbc:  dbc,
		blob: bs,
		kvc:  ctxPkg.GetKVClient(c),
		mqc:  ctxPkg.GetMQClient(c),
	}
}

// translateDBError 将 gorm 错误映射为业务错误.唯一约束冲突是并发创建竞争的最终防线，
// 必须以 Conflict 呈现而不是落为内部错误.
func translateDBError(err error) *errs.Error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.Conflict("Resource already exists")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NotFound("Resource")
	default:
		return errs.Database(err)
	}
}
