package service

import (
	"context"
	"time"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/types"
	"github.com/yeisme/firmvault/pkg/metrics"
)

// StatsService 注册表统计.
type StatsService struct {
	registryService
}

// NewStatsService 创建并返回一个新的 StatsService 实例.
func NewStatsService(c context.Context) *StatsService {
	return &StatsService{newRegistryService(c)}
}

const recentUploadWindow = 7 * 24 * time.Hour

// Get 汇总应用数、版本数、存储占用与近期上传次数.
func (s *StatsService) Get(ctx context.Context) (*types.StatsResponse, error) {
	db := s.dbc.DB.WithContext(ctx)
	resp := &types.StatsResponse{}

	if err := db.Model(&model.App{}).Count(&resp.TotalApps).Error; err != nil {
		return nil, errs.Database(err)
	}

	if err := db.Model(&model.Version{}).Count(&resp.TotalVersions).Error; err != nil {
		return nil, errs.Database(err)
	}

	var totalSize *int64
	if err := db.Model(&model.VersionFile{}).
		Select("SUM(file_size)").
		Scan(&totalSize).Error; err != nil {
		return nil, errs.Database(err)
	}

	if totalSize != nil {
		resp.TotalStorageBytes = *totalSize
	}

	if err := db.Model(&model.App{}).
		Where("current_version_id IS NOT NULL").
		Count(&resp.AppsWithActiveVersion).Error; err != nil {
		return nil, errs.Database(err)
	}

	if err := db.Model(&model.AuditLog{}).
		Where("action = ? AND created_at >= ?", "version.upload", time.Now().Add(-recentUploadWindow)).
		Count(&resp.RecentUploads).Error; err != nil {
		return nil, errs.Database(err)
	}

	metrics.StorageBytes.Set(float64(resp.TotalStorageBytes))

	return resp, nil
}
