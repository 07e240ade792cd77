package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/types"
	flog "github.com/yeisme/firmvault/pkg/log"
	"github.com/yeisme/firmvault/pkg/rule"
)

// AppService 负责应用生命周期管理.
type AppService struct {
	registryService
}

// NewAppService 创建并返回一个新的 AppService 实例.
func NewAppService(c context.Context) *AppService {
	return &AppService{newRegistryService(c)}
}

// findAppByKey 按 appKey 查找应用.
func (s *AppService) findAppByKey(ctx context.Context, appKey string) (*model.App, *errs.Error) {
	var app model.App

	if err := s.dbc.DB.WithContext(ctx).Where("app_key = ?", appKey).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.AppNotFound(appKey)
		}

		return nil, errs.Database(err)
	}

	return &app, nil
}

// List 返回调用方作用域内的应用，按显示名排序.scope 为 nil 表示全局，
// 非 nil 空切片不匹配任何应用.
func (s *AppService) List(ctx context.Context, scope []string) (*types.ListAppsResponse, error) {
	q := s.dbc.DB.WithContext(ctx).Model(&model.App{})
	if scope != nil {
		q = q.Where("app_key IN ?", scope)
	}

	var apps []model.App
	if err := q.Order("name ASC").Find(&apps).Error; err != nil {
		return nil, errs.Database(err)
	}

	resp := &types.ListAppsResponse{Apps: make([]types.AppResponse, 0, len(apps)), Total: len(apps)}
	for i := range apps {
		resp.Apps = append(resp.Apps, types.ToAppResponse(&apps[i]))
	}

	return resp, nil
}

// Get 按 appKey 查找应用.
func (s *AppService) Get(ctx context.Context, appKey string) (*types.AppResponse, error) {
	app, aerr := s.findAppByKey(ctx, appKey)
	if aerr != nil {
		return nil, aerr
	}

	resp := types.ToAppResponse(app)

	return &resp, nil
}

// Create 注册新应用.appKey 唯一性先做前置检查，插入时的唯一约束是最终防线.
func (s *AppService) Create(ctx context.Context, req *types.CreateAppRequest) (*types.AppResponse, error) {
	appKey := strings.ToLower(strings.TrimSpace(req.AppKey))

	if err := rule.ValidateVar(appKey, "required,appkey"); err != nil {
		return nil, errs.Validation("Invalid app key: must be lowercase alphanumeric with single dashes, at most 50 chars")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = appKey
	}

	if len(name) > 100 {
		name = name[:100]
	}

	var count int64
	if err := s.dbc.DB.WithContext(ctx).Model(&model.App{}).Where("app_key = ?", appKey).Count(&count).Error; err != nil {
		return nil, errs.Database(err)
	}

	if count > 0 {
		return nil, errs.AlreadyExists("App with key '" + appKey + "'")
	}

	app := model.App{
		AppKey:   appKey,
		Name:     name,
		IsPublic: req.IsPublic,
	}

	if err := s.dbc.DB.WithContext(ctx).Create(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.AlreadyExists("App with key '" + appKey + "'")
		}

		return nil, errs.Database(err)
	}

	resp := types.ToAppResponse(&app)

	return &resp, nil
}

// Update 更新应用，未提供的字段保持不变.
func (s *AppService) Update(ctx context.Context, appKey string, req *types.UpdateAppRequest) (*types.AppResponse, error) {
	app, aerr := s.findAppByKey(ctx, appKey)
	if aerr != nil {
		return nil, aerr
	}

	updates := map[string]any{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			name = app.AppKey
		}

		if len(name) > 100 {
			name = name[:100]
		}

		updates["name"] = name
	}

	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	if len(updates) > 0 {
		if err := s.dbc.DB.WithContext(ctx).Model(app).Updates(updates).Error; err != nil {
			return nil, errs.Database(err)
		}
	}

	return s.Get(ctx, appKey)
}

// Delete 删除应用及其全部版本.事务顺序：统计版本数 → 置空活跃版本指针（避免外键悬挂）
// → 删除版本文件行 → 删除版本行 → 删除应用行.文件系统清理严格放在事务提交之后，
// 清理失败只记日志，数据库才是"存在与否"的权威.
func (s *AppService) Delete(ctx context.Context, appKey string) (*types.DeleteAppResponse, error) {
	app, aerr := s.findAppByKey(ctx, appKey)
	if aerr != nil {
		return nil, aerr
	}

	var deletedVersions int64

	err := s.dbc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Version{}).Where("app_id = ?", app.ID).Count(&deletedVersions).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.App{}).Where("id = ?", app.ID).Update("current_version_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("version_id IN (?)",
			tx.Model(&model.Version{}).Select("id").Where("app_id = ?", app.ID),
		).Delete(&model.VersionFile{}).Error; err != nil {
			return err
		}

		if err := tx.Where("app_id = ?", app.ID).Delete(&model.Version{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.App{}, app.ID).Error
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	if err := s.blob.DeleteAppDir(ctx, appKey); err != nil {
		flog.Logger().Warn().Err(err).Str("app", appKey).Msg("app files cleanup failed, rows already deleted")
	}

	return &types.DeleteAppResponse{AppKey: appKey, DeletedVersions: deletedVersions}, nil
}
