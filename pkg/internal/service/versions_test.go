package service_test

import (
	"os"
	"testing"

	"gorm.io/gorm"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/internal/storage/blob"
	"github.com/yeisme/firmvault/pkg/internal/types"
)

func TestNextVersionName(t *testing.T) {
	cases := []struct {
		latest, want string
	}{
		{"", "1.0.0"},
		{"1.0.0", "1.0.1"},
		{"2.3", "2.4"},
		{"v1.0.0", "1.0.1"},
		{"beta", "beta.1"},
		{"1.0.beta", "1.0.beta.1"},
		// 末段非数字时在原始版本名上追加，前导 v 保留
		{"vbeta", "vbeta.1"},
		{"7", "8"},
	}

	for _, tc := range cases {
		if got := service.NextVersionName(tc.latest); got != tc.want {
			t.Errorf("NextVersionName(%q) = %q, want %q", tc.latest, got, tc.want)
		}
	}
}

func TestUploadLifecycle(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	apps := service.NewAppService(ctx)
	versions := service.NewVersionService(ctx)

	if _, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: "firmware"}); err != nil {
		t.Fatalf("create app: %v", err)
	}

	// 第一次上传，未指定版本名，从 1.0.0 开始，立即成为活跃版本
	v1, err := versions.Upload(ctx, "firmware", "", []blob.Upload{newUpload(t, mgr, "fw.bin", "image-v1")})
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	if v1.VersionName != "1.0.0" || !v1.IsActive {
		t.Fatalf("first upload = %q active=%v, want 1.0.0 active", v1.VersionName, v1.IsActive)
	}

	if len(v1.Files) != 1 || v1.Files[0].FileName != "fw.bin" {
		t.Fatalf("files = %+v", v1.Files)
	}

	if v1.Files[0].DownloadURL != "/files/firmware/1.0.0/fw.bin" {
		t.Errorf("download url = %q", v1.Files[0].DownloadURL)
	}

	// 第二次上传自动递增并接管活跃指针
	v2, err := versions.Upload(ctx, "firmware", "", []blob.Upload{newUpload(t, mgr, "fw.bin", "image-v2")})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if v2.VersionName != "1.0.1" || !v2.IsActive {
		t.Fatalf("second upload = %q active=%v, want 1.0.1 active", v2.VersionName, v2.IsActive)
	}

	list, err := versions.List(ctx, "firmware")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if list.Total != 2 {
		t.Fatalf("total = %d, want 2", list.Total)
	}

	// 新版本在前，活跃标记跟随指针
	if list.Versions[0].VersionName != "1.0.1" || !list.Versions[0].IsActive {
		t.Errorf("head = %+v", list.Versions[0])
	}

	if list.Versions[1].IsActive {
		t.Error("1.0.0 should no longer be active")
	}

	// 活跃版本禁止删除
	if err := versions.Delete(ctx, "firmware", v2.ID); !errs.IsCode(err, errs.CodeValidation) {
		t.Fatalf("delete active = %v, want validation error", err)
	}

	// 切回 1.0.0 后即可删除 1.0.1
	if _, err := versions.SetActive(ctx, "firmware", v1.ID); err != nil {
		t.Fatalf("set active: %v", err)
	}

	if err := versions.Delete(ctx, "firmware", v2.ID); err != nil {
		t.Fatalf("delete inactive: %v", err)
	}

	latest, err := versions.Latest(ctx, "firmware", &service.Token{Permission: model.PermissionRead})
	if err != nil {
		t.Fatalf("latest: %v", err)
	}

	if latest.VersionName != "1.0.0" {
		t.Errorf("latest = %q, want 1.0.0", latest.VersionName)
	}
}

func TestUploadRequiresFiles(t *testing.T) {
	ctx, _ := newTestCtx(t)
	versions := service.NewVersionService(ctx)

	if _, err := versions.Upload(ctx, "any", "", nil); !errs.IsCode(err, errs.CodeValidation) {
		t.Fatalf("empty upload = %v, want validation error", err)
	}
}

func TestUploadUnknownAppCleansTemp(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	versions := service.NewVersionService(ctx)

	up := newUpload(t, mgr, "fw.bin", "data")

	if _, err := versions.Upload(ctx, "ghost", "", []blob.Upload{up}); !errs.IsCode(err, errs.CodeAppNotFound) {
		t.Fatalf("upload = %v, want app not found", err)
	}

	if _, err := os.Stat(up.TempPath); !os.IsNotExist(err) {
		t.Error("temp file should be cleaned up on failure")
	}
}

func TestUploadVersionNameConflict(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	apps := service.NewAppService(ctx)
	versions := service.NewVersionService(ctx)

	if _, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: "fw"}); err != nil {
		t.Fatalf("create app: %v", err)
	}

	if _, err := versions.Upload(ctx, "fw", "2.0.0", []blob.Upload{newUpload(t, mgr, "a.bin", "a")}); err != nil {
		t.Fatalf("first upload: %v", err)
	}

	up := newUpload(t, mgr, "b.bin", "b")

	if _, err := versions.Upload(ctx, "fw", "2.0.0", []blob.Upload{up}); !errs.IsCode(err, errs.CodeConflict) {
		t.Fatalf("duplicate version = %v, want conflict", err)
	}

	if _, err := os.Stat(up.TempPath); !os.IsNotExist(err) {
		t.Error("temp file should be cleaned up on conflict")
	}
}

// TestUploadVersionNameRace 模拟并发上传：预检通过后、插入之前另一个请求抢先写入
// 同名版本，唯一约束兜底并映射为冲突错误.
func TestUploadVersionNameRace(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	apps := service.NewAppService(ctx)
	versions := service.NewVersionService(ctx)

	app, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: "fw"})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	// 在 INSERT 执行前抢先写入同名版本行，绕过预检
	injected := false
	err = mgr.DB.DB.Callback().Create().Before("gorm:create").Register("conflict_inject", func(tx *gorm.DB) {
		if injected || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "versions" {
			return
		}

		injected = true

		rival := model.Version{AppID: app.ID, VersionName: "3.0.0"}
		if err := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).
			Table("versions").Create(&rival).Error; err != nil {
			t.Fatalf("inject rival version: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	up := newUpload(t, mgr, "a.bin", "a")

	if _, err := versions.Upload(ctx, "fw", "3.0.0", []blob.Upload{up}); !errs.IsCode(err, errs.CodeConflict) {
		t.Fatalf("racing upload = %v, want conflict", err)
	}

	if !injected {
		t.Fatal("rival insert never ran")
	}

	if _, err := os.Stat(up.TempPath); !os.IsNotExist(err) {
		t.Error("temp file should be cleaned up on conflict")
	}
}

func TestUploadInvalidVersionName(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	apps := service.NewAppService(ctx)
	versions := service.NewVersionService(ctx)

	if _, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: "fw"}); err != nil {
		t.Fatalf("create app: %v", err)
	}

	up := newUpload(t, mgr, "a.bin", "a")

	if _, err := versions.Upload(ctx, "fw", "1.0/evil", []blob.Upload{up}); !errs.IsCode(err, errs.CodeValidation) {
		t.Fatalf("invalid name = %v, want validation error", err)
	}
}

func TestLatestAccessMatrix(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	apps := service.NewAppService(ctx)
	versions := service.NewVersionService(ctx)

	if _, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: "public-app", IsPublic: true}); err != nil {
		t.Fatalf("create public app: %v", err)
	}

	if _, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: "private-app"}); err != nil {
		t.Fatalf("create private app: %v", err)
	}

	for _, key := range []string{"public-app", "private-app"} {
		if _, err := versions.Upload(ctx, key, "", []blob.Upload{newUpload(t, mgr, "fw.bin", "img-"+key)}); err != nil {
			t.Fatalf("upload %s: %v", key, err)
		}
	}

	// 公开应用：匿名放行
	if _, err := versions.Latest(ctx, "public-app", nil); err != nil {
		t.Errorf("anonymous read of public app: %v", err)
	}

	// 私有应用：无令牌 → 401
	if _, err := versions.Latest(ctx, "private-app", nil); !errs.IsCode(err, errs.CodeUnauthorized) {
		t.Errorf("anonymous read of private app = %v, want unauthorized", err)
	}

	// 私有应用：作用域外令牌 → 403
	outOfScope := &service.Token{Permission: model.PermissionRead, AppScope: []string{"other-app"}}
	if _, err := versions.Latest(ctx, "private-app", outOfScope); !errs.IsCode(err, errs.CodeForbidden) {
		t.Errorf("out-of-scope read = %v, want forbidden", err)
	}

	// 私有应用：作用域内令牌放行
	inScope := &service.Token{Permission: model.PermissionRead, AppScope: []string{"private-app"}}
	if _, err := versions.Latest(ctx, "private-app", inScope); err != nil {
		t.Errorf("in-scope read: %v", err)
	}

	// admin 无视作用域
	admin := &service.Token{Permission: model.PermissionAdmin, AppScope: []string{"other-app"}}
	if _, err := versions.Latest(ctx, "private-app", admin); err != nil {
		t.Errorf("admin read: %v", err)
	}
}

func TestLatestFallbackAndEmpty(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	apps := service.NewAppService(ctx)
	versions := service.NewVersionService(ctx)

	if _, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: "legacy", IsPublic: true}); err != nil {
		t.Fatalf("create app: %v", err)
	}

	// 无任何版本时报版本不存在
	if _, err := versions.Latest(ctx, "legacy", nil); !errs.IsCode(err, errs.CodeVersionNotFound) {
		t.Fatalf("latest with no versions = %v, want version not found", err)
	}

	// 活跃指针为空时回退到最近创建的版本
	for _, name := range []string{"0.1", "0.2"} {
		if _, err := versions.Upload(ctx, "legacy", name, []blob.Upload{newUpload(t, mgr, "fw.bin", name)}); err != nil {
			t.Fatalf("upload %s: %v", name, err)
		}
	}

	if err := mgr.DB.DB.Model(&model.App{}).
		Where("app_key = ?", "legacy").
		Update("current_version_id", nil).Error; err != nil {
		t.Fatalf("clear pointer: %v", err)
	}

	latest, err := versions.Latest(ctx, "legacy", nil)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}

	if latest.VersionName != "0.2" {
		t.Errorf("fallback latest = %q, want 0.2", latest.VersionName)
	}

	if latest.IsActive {
		t.Error("fallback version should not be marked active")
	}
}

func TestSetActiveScopedToApp(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	apps := service.NewAppService(ctx)
	versions := service.NewVersionService(ctx)

	for _, key := range []string{"one", "two"} {
		if _, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: key}); err != nil {
			t.Fatalf("create %s: %v", key, err)
		}
	}

	v, err := versions.Upload(ctx, "one", "", []blob.Upload{newUpload(t, mgr, "fw.bin", "x")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	// 其他应用的版本 ID 按不存在处理
	if _, err := versions.SetActive(ctx, "two", v.ID); !errs.IsCode(err, errs.CodeVersionNotFound) {
		t.Fatalf("cross-app set active = %v, want version not found", err)
	}

	if err := versions.Delete(ctx, "two", v.ID); !errs.IsCode(err, errs.CodeVersionNotFound) {
		t.Fatalf("cross-app delete = %v, want version not found", err)
	}
}
