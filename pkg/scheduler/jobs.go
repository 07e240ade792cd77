package scheduler

import (
	"context"
	"time"

	"github.com/yeisme/firmvault/pkg/configs"
	ctxPkg "github.com/yeisme/firmvault/pkg/context"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/log"
)

const (
	tempSweepInterval = 1 * time.Hour
	tempMaxAge        = 24 * time.Hour

	auditPruneInterval = 24 * time.Hour
)

// RegisterMaintenanceJobs 注册后台维护任务：
//   - 清扫超期的上传暂存文件（上传中断后遗留的文件）
//   - 按保留期裁剪审计日志
//
// ctx 必须携带 storage.Manager.
func RegisterMaintenanceJobs(s *Scheduler, ctx context.Context) error {
	if err := s.AddInterval("temp_upload_sweep", tempSweepInterval, sweepTempUploads, ctx); err != nil {
		return err
	}

	if configs.GetConfig().Audit.Enabled {
		if err := s.AddInterval("audit_prune", auditPruneInterval, pruneAudit, ctx); err != nil {
			return err
		}
	}

	return nil
}

// sweepTempUploads 删除暂存目录中的超期文件.
func sweepTempUploads(ctx context.Context) {
	l := log.Logger()

	store := ctxPkg.GetBlobStore(ctx)
	if store == nil {
		l.Warn().Msg("temp sweep skipped: blob store not available")
		return
	}

	removed, err := store.CleanupTemp(ctx, tempMaxAge)
	if err != nil {
		l.Error().Err(err).Msg("temp upload sweep failed")
		return
	}

	if removed > 0 {
		l.Info().Int("removed", removed).Msg("swept stale temp uploads")
	}
}

// pruneAudit 删除超出保留期的审计记录.
func pruneAudit(ctx context.Context) {
	l := log.Logger()

	retention := time.Duration(configs.GetConfig().Audit.RetentionDays) * 24 * time.Hour

	pruned, err := service.NewAuditService(ctx).Prune(ctx, retention)
	if err != nil {
		l.Error().Err(err).Msg("audit prune failed")
		return
	}

	if pruned > 0 {
		l.Info().Int64("pruned", pruned).Msg("pruned expired audit entries")
	}
}
