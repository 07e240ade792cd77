package service

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/storage/blob"
	"github.com/yeisme/firmvault/pkg/internal/types"
	flog "github.com/yeisme/firmvault/pkg/log"
	"github.com/yeisme/firmvault/pkg/metrics"
	"github.com/yeisme/firmvault/pkg/queue"
	"github.com/yeisme/firmvault/pkg/rule"
)

// latestGroup 合并同一应用上并发的 latest 解析，避免缓存失效后的穿透.
var latestGroup singleflight.Group

const latestCacheTTL = 60 * time.Second

// VersionService 负责版本上传、活跃版本切换与删除.
type VersionService struct {
	registryService
	apps *AppService
}

// NewVersionService 创建并返回一个新的 VersionService 实例.
func NewVersionService(c context.Context) *VersionService {
	base := newRegistryService(c)
	return &VersionService{registryService: base, apps: &AppService{base}}
}

// findVersionInApp 查找属于指定应用的版本.其他应用的 versionID 同样按不存在处理.
func (s *VersionService) findVersionInApp(ctx context.Context, appID, versionID uint) (*model.Version, *errs.Error) {
	var v model.Version

	if err := s.dbc.DB.WithContext(ctx).
		Where("id = ? AND app_id = ?", versionID, appID).
		First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.VersionNotFound(versionID)
		}

		return nil, errs.Database(err)
	}

	return &v, nil
}

// List 返回应用的全部版本，新版本在前，文件元数据批量预加载.
func (s *VersionService) List(ctx context.Context, appKey string) (*types.ListVersionsResponse, error) {
	app, aerr := s.apps.findAppByKey(ctx, appKey)
	if aerr != nil {
		return nil, aerr
	}

	var versions []model.Version
	if err := s.dbc.DB.WithContext(ctx).
		Preload("Files").
		Where("app_id = ?", app.ID).
		Order("created_at DESC, id DESC").
		Find(&versions).Error; err != nil {
		return nil, errs.Database(err)
	}

	resp := &types.ListVersionsResponse{
		Versions: make([]types.VersionResponse, 0, len(versions)),
		Total:    len(versions),
	}
	for i := range versions {
		resp.Versions = append(resp.Versions, types.ToVersionResponse(app.AppKey, &versions[i], app.CurrentVersionID))
	}

	return resp, nil
}

// Latest 解析应用的当前版本.公开应用对匿名开放；私有应用要求令牌与作用域.
// 活跃版本指针为空时回退到最近创建的版本（早于活跃版本概念的存量应用）.
func (s *VersionService) Latest(ctx context.Context, appKey string, token *Token) (*types.VersionResponse, error) {
	app, aerr := s.apps.findAppByKey(ctx, appKey)
	if aerr != nil {
		return nil, aerr
	}

	allowed, authRequired := LatestReadAllowed(app, token)
	if !allowed {
		if authRequired {
			return nil, errs.Unauthorized("")
		}

		return nil, errs.Forbidden("")
	}

	cacheKey := "latest:" + appKey
	if s.kvc != nil {
		if b, err := s.kvc.Get(ctx, cacheKey); err == nil {
			var cached types.VersionResponse
			if err := sonic.Unmarshal(b, &cached); err == nil {
				metrics.LatestResolves.WithLabelValues(appKey, "hit").Inc()
				return &cached, nil
			}
		}
	}

	v, err, _ := latestGroup.Do(appKey, func() (any, error) {
		return s.resolveLatest(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	resp, ok := v.(*types.VersionResponse)
	if !ok {
		return nil, errs.Internal(errors.New("unexpected latest resolution type"))
	}

	metrics.LatestResolves.WithLabelValues(appKey, "miss").Inc()

	if s.kvc != nil {
		if b, err := sonic.Marshal(resp); err == nil {
			_ = s.kvc.Set(ctx, cacheKey, b, latestCacheTTL)
		}
	}

	return resp, nil
}

// resolveLatest 从数据库解析当前版本.
func (s *VersionService) resolveLatest(ctx context.Context, app *model.App) (*types.VersionResponse, error) {
	q := s.dbc.DB.WithContext(ctx).Preload("Files").Where("app_id = ?", app.ID)

	var v model.Version

	var err error
	if app.CurrentVersionID != nil {
		err = q.Where("id = ?", *app.CurrentVersionID).First(&v).Error
	} else {
		err = q.Order("created_at DESC, id DESC").First(&v).Error
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.VersionNotFound(0)
		}

		return nil, errs.Database(err)
	}

	resp := types.ToVersionResponse(app.AppKey, &v, app.CurrentVersionID)

	return &resp, nil
}

// invalidateLatest 清除 latest 缓存.
func (s *VersionService) invalidateLatest(ctx context.Context, appKey string) {
	if s.kvc != nil {
		_ = s.kvc.Delete(ctx, "latest:"+appKey)
	}
}

// cleanupTemp 尽力删除未提交的上传临时文件，用于所有失败路径.
func cleanupTemp(uploads []blob.Upload) {
	for _, up := range uploads {
		if up.TempPath == "" {
			continue
		}

		if err := os.Remove(up.TempPath); err != nil && !os.IsNotExist(err) {
			flog.Logger().Debug().Err(err).Str("path", up.TempPath).Msg("temp file cleanup failed")
		}
	}
}

// Upload 上传新版本.版本名缺省时自动递增；每次上传立即成为活跃版本，无需单独激活.
// 任何失败路径都先清理临时文件再传播错误.
func (s *VersionService) Upload(ctx context.Context, appKey, versionName string, uploads []blob.Upload) (*types.VersionResponse, error) {
	if len(uploads) == 0 {
		return nil, errs.Validation("At least one file is required")
	}

	app, aerr := s.apps.findAppByKey(ctx, appKey)
	if aerr != nil {
		cleanupTemp(uploads)
		return nil, aerr
	}

	name := strings.TrimSpace(versionName)
	if name == "" {
		latest, err := s.latestVersionName(ctx, app.ID)
		if err != nil {
			cleanupTemp(uploads)
			return nil, err
		}

		name = NextVersionName(latest)
	} else if err := rule.ValidateVar(name, "versionname"); err != nil || name == "" {
		cleanupTemp(uploads)
		return nil, errs.Validation("Invalid version name: allowed characters are letters, digits, dot, dash and underscore, at most 50 chars")
	}

	// 前置冲突检查；插入时的 (app_id, version_name) 唯一约束兜底并发竞争
	var count int64
	if err := s.dbc.DB.WithContext(ctx).Model(&model.Version{}).
		Where("app_id = ? AND version_name = ?", app.ID, name).
		Count(&count).Error; err != nil {
		cleanupTemp(uploads)
		return nil, errs.Database(err)
	}

	if count > 0 {
		cleanupTemp(uploads)
		return nil, errs.Conflict("Version '" + name + "' already exists for this app")
	}

	version := model.Version{AppID: app.ID, VersionName: name}
	if err := s.dbc.DB.WithContext(ctx).Create(&version).Error; err != nil {
		cleanupTemp(uploads)

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Conflict("Version '" + name + "' already exists for this app")
		}

		return nil, errs.Database(err)
	}

	var totalSize int64

	for i, up := range uploads {
		saved, err := s.blob.SaveFile(ctx, app.AppKey, name, up)
		if err != nil {
			// 已落盘的文件与已写入的行保留给运维观察，不做复杂回滚
			cleanupTemp(uploads[i:])
			return nil, errs.Storage("Failed to store uploaded file", err)
		}

		vf := model.VersionFile{
			VersionID: version.ID,
			FileName:  saved.FileName,
			FileHash:  saved.FileHash,
			FileSize:  saved.FileSize,
		}
		if err := s.dbc.DB.WithContext(ctx).Create(&vf).Error; err != nil {
			cleanupTemp(uploads[i+1:])
			return nil, errs.Database(err)
		}

		totalSize += saved.FileSize
	}

	if err := s.dbc.DB.WithContext(ctx).Model(&model.App{}).
		Where("id = ?", app.ID).
		Update("current_version_id", version.ID).Error; err != nil {
		return nil, errs.Database(err)
	}

	s.invalidateLatest(ctx, app.AppKey)
	metrics.VersionUploads.WithLabelValues(app.AppKey).Inc()

	if pub := s.mqc.Publisher(); pub != nil {
		payload := queue.VersionUploadedPayload{
			Version: queue.VersionRef{
				App:         queue.AppRef{AppID: app.ID, AppKey: app.AppKey},
				VersionID:   version.ID,
				VersionName: name,
			},
			FileCount: len(uploads),
			TotalSize: totalSize,
		}
		if err := queue.PublishVersionUploaded(pub, payload, queue.WithProducer("firmvault")); err != nil {
			flog.Logger().Debug().Err(err).Msg("version uploaded event publish failed")
		}
	}

	// 重新加载文件行以包含生成的 ID 与时间戳
	if err := s.dbc.DB.WithContext(ctx).Preload("Files").First(&version, version.ID).Error; err != nil {
		return nil, errs.Database(err)
	}

	resp := types.ToVersionResponse(app.AppKey, &version, &version.ID)

	return &resp, nil
}

// latestVersionName 返回最近创建的版本名，没有版本时返回空串.
func (s *VersionService) latestVersionName(ctx context.Context, appID uint) (string, error) {
	var v model.Version

	err := s.dbc.DB.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("created_at DESC, id DESC").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}

		return "", errs.Database(err)
	}

	return v.VersionName, nil
}

// NextVersionName 推导下一个版本名：去掉前导 v 后递增最后一个点分数字段
// （1.0.0 → 1.0.1）；末段非数字则在原始版本名后追加 .1；没有既往版本时从 1.0.0 开始.
func NextVersionName(latest string) string {
	if latest == "" {
		return "1.0.0"
	}

	name := strings.TrimPrefix(latest, "v")
	parts := strings.Split(name, ".")

	last := parts[len(parts)-1]
	if n, err := strconv.Atoi(last); err == nil {
		parts[len(parts)-1] = strconv.Itoa(n + 1)
		return strings.Join(parts, ".")
	}

	return latest + ".1"
}

// SetActive 切换活跃版本.versionID 必须属于该应用，否则按不存在处理.
func (s *VersionService) SetActive(ctx context.Context, appKey string, versionID uint) (*types.VersionResponse, error) {
	app, aerr := s.apps.findAppByKey(ctx, appKey)
	if aerr != nil {
		return nil, aerr
	}

	version, verr := s.findVersionInApp(ctx, app.ID, versionID)
	if verr != nil {
		return nil, verr
	}

	var prev uint
	if app.CurrentVersionID != nil {
		prev = *app.CurrentVersionID
	}

	if err := s.dbc.DB.WithContext(ctx).Model(&model.App{}).
		Where("id = ?", app.ID).
		Update("current_version_id", version.ID).Error; err != nil {
		return nil, errs.Database(err)
	}

	s.invalidateLatest(ctx, app.AppKey)

	if pub := s.mqc.Publisher(); pub != nil {
		payload := queue.VersionActivatedPayload{
			Version: queue.VersionRef{
				App:         queue.AppRef{AppID: app.ID, AppKey: app.AppKey},
				VersionID:   version.ID,
				VersionName: version.VersionName,
			},
			PrevVersionID: prev,
		}
		if msg, err := queue.NewWatermillMessage(queue.TopicVersionActivated, payload, queue.WithProducer("firmvault")); err == nil {
			_ = pub.Publish(queue.TopicVersionActivated, msg)
		}
	}

	if err := s.dbc.DB.WithContext(ctx).Preload("Files").First(version, version.ID).Error; err != nil {
		return nil, errs.Database(err)
	}

	resp := types.ToVersionResponse(app.AppKey, version, &version.ID)

	return &resp, nil
}

// Delete 删除版本.活跃版本禁止删除，调用方需先激活其他版本.
// 数据库行在事务中删除，文件清理在提交后进行，失败只记日志.
func (s *VersionService) Delete(ctx context.Context, appKey string, versionID uint) error {
	app, aerr := s.apps.findAppByKey(ctx, appKey)
	if aerr != nil {
		return aerr
	}

	version, verr := s.findVersionInApp(ctx, app.ID, versionID)
	if verr != nil {
		return verr
	}

	if app.CurrentVersionID != nil && *app.CurrentVersionID == version.ID {
		return errs.Validation("Cannot delete the active version; activate another version first")
	}

	var files []model.VersionFile
	if err := s.dbc.DB.WithContext(ctx).Where("version_id = ?", version.ID).Find(&files).Error; err != nil {
		return errs.Database(err)
	}

	err := s.dbc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("version_id = ?", version.ID).Delete(&model.VersionFile{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.Version{}, version.ID).Error
	})
	if err != nil {
		return translateDBError(err)
	}

	for i := range files {
		if err := s.blob.DeleteFile(ctx, app.AppKey, version.VersionName, files[i].FileName); err != nil {
			flog.Logger().Warn().Err(err).Str("file", files[i].FileName).Msg("version file cleanup failed")
		}
	}

	if err := s.blob.DeleteVersionDir(ctx, app.AppKey, version.VersionName); err != nil {
		flog.Logger().Warn().Err(err).Str("version", version.VersionName).Msg("version dir cleanup failed")
	}

	s.invalidateLatest(ctx, app.AppKey)

	if pub := s.mqc.Publisher(); pub != nil {
		payload := queue.VersionDeletedPayload{
			Version: queue.VersionRef{
				App:         queue.AppRef{AppID: app.ID, AppKey: app.AppKey},
				VersionID:   version.ID,
				VersionName: version.VersionName,
			},
		}
		if msg, err := queue.NewWatermillMessage(queue.TopicVersionDeleted, payload, queue.WithProducer("firmvault")); err == nil {
			_ = pub.Publish(queue.TopicVersionDeleted, msg)
		}
	}

	return nil
}
