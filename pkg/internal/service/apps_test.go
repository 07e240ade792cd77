package service_test

import (
	"testing"

	"gorm.io/gorm"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/internal/storage/blob"
	"github.com/yeisme/firmvault/pkg/internal/types"
)

func TestCreateApp(t *testing.T) {
	ctx, _ := newTestCtx(t)
	svc := service.NewAppService(ctx)

	app, err := svc.Create(ctx, &types.CreateAppRequest{AppKey: "my-firmware"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if app.AppKey != "my-firmware" {
		t.Errorf("app key = %q", app.AppKey)
	}

	// 显示名缺省时使用 appKey
	if app.Name != "my-firmware" {
		t.Errorf("name = %q, want app key default", app.Name)
	}

	if app.IsPublic {
		t.Error("is_public should default to false")
	}

	if app.CurrentVersionID != nil {
		t.Error("new app should have no active version")
	}
}

func TestCreateAppNormalizesKey(t *testing.T) {
	ctx, _ := newTestCtx(t)
	svc := service.NewAppService(ctx)

	app, err := svc.Create(ctx, &types.CreateAppRequest{AppKey: "  My-App  ", Name: "Display"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if app.AppKey != "my-app" {
		t.Errorf("app key = %q, want lowercased my-app", app.AppKey)
	}

	if app.Name != "Display" {
		t.Errorf("name = %q", app.Name)
	}
}

func TestCreateAppInvalidKey(t *testing.T) {
	ctx, _ := newTestCtx(t)
	svc := service.NewAppService(ctx)

	for _, key := range []string{"", "app_1", "-app", "app-", "a--b", "app key"} {
		if _, err := svc.Create(ctx, &types.CreateAppRequest{AppKey: key}); !errs.IsCode(err, errs.CodeValidation) {
			t.Errorf("Create(%q) = %v, want validation error", key, err)
		}
	}
}

func TestCreateAppDuplicate(t *testing.T) {
	ctx, _ := newTestCtx(t)
	svc := service.NewAppService(ctx)

	if _, err := svc.Create(ctx, &types.CreateAppRequest{AppKey: "dup"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.Create(ctx, &types.CreateAppRequest{AppKey: "dup"})
	if !errs.IsCode(err, errs.CodeAlreadyExists) {
		t.Fatalf("duplicate create = %v, want already exists", err)
	}

	if e, ok := errs.As(err); !ok || e.Message != "App with key 'dup' already exists" {
		t.Errorf("error = %v", err)
	}
}

// TestCreateAppRace 模拟并发注册：预检通过后、插入之前另一个请求抢先写入同 key
// 的应用，唯一约束兜底并映射为已存在错误.
func TestCreateAppRace(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	svc := service.NewAppService(ctx)

	injected := false
	err := mgr.DB.DB.Callback().Create().Before("gorm:create").Register("conflict_inject", func(tx *gorm.DB) {
		if injected || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "apps" {
			return
		}

		injected = true

		rival := model.App{AppKey: "raced", Name: "raced"}
		if err := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).Create(&rival).Error; err != nil {
			t.Fatalf("inject rival app: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := svc.Create(ctx, &types.CreateAppRequest{AppKey: "raced"}); !errs.IsCode(err, errs.CodeAlreadyExists) {
		t.Fatalf("racing create = %v, want already exists", err)
	}

	if !injected {
		t.Fatal("rival insert never ran")
	}
}

func TestGetAppNotFound(t *testing.T) {
	ctx, _ := newTestCtx(t)
	svc := service.NewAppService(ctx)

	if _, err := svc.Get(ctx, "ghost"); !errs.IsCode(err, errs.CodeAppNotFound) {
		t.Fatalf("get = %v, want app not found", err)
	}
}

func TestUpdateAppPartial(t *testing.T) {
	ctx, _ := newTestCtx(t)
	svc := service.NewAppService(ctx)

	if _, err := svc.Create(ctx, &types.CreateAppRequest{AppKey: "fw", Name: "Firmware"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	public := true

	app, err := svc.Update(ctx, "fw", &types.UpdateAppRequest{IsPublic: &public})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if !app.IsPublic {
		t.Error("is_public should be updated")
	}

	// 未提供的字段保持不变
	if app.Name != "Firmware" {
		t.Errorf("name = %q, should be untouched", app.Name)
	}

	name := "Renamed"

	app, err = svc.Update(ctx, "fw", &types.UpdateAppRequest{Name: &name})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if app.Name != "Renamed" || !app.IsPublic {
		t.Errorf("got name=%q public=%v", app.Name, app.IsPublic)
	}

	if _, err := svc.Update(ctx, "ghost", &types.UpdateAppRequest{Name: &name}); !errs.IsCode(err, errs.CodeAppNotFound) {
		t.Fatalf("update missing app = %v, want app not found", err)
	}
}

func TestListAppsScope(t *testing.T) {
	ctx, _ := newTestCtx(t)
	svc := service.NewAppService(ctx)

	for _, key := range []string{"alpha", "beta", "gamma"} {
		if _, err := svc.Create(ctx, &types.CreateAppRequest{AppKey: key}); err != nil {
			t.Fatalf("create %s failed: %v", key, err)
		}
	}

	all, err := svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if all.Total != 3 {
		t.Errorf("total = %d, want 3", all.Total)
	}

	scoped, err := svc.List(ctx, []string{"beta"})
	if err != nil {
		t.Fatalf("scoped list failed: %v", err)
	}

	if scoped.Total != 1 || scoped.Apps[0].AppKey != "beta" {
		t.Errorf("scoped list = %+v", scoped)
	}

	// 非 nil 空作用域不等于全局
	none, err := svc.List(ctx, []string{})
	if err != nil {
		t.Fatalf("empty scope list failed: %v", err)
	}

	if none.Total != 0 {
		t.Errorf("empty scope list total = %d, want 0", none.Total)
	}
}

func TestDeleteAppCascades(t *testing.T) {
	ctx, mgr := newTestCtx(t)
	apps := service.NewAppService(ctx)
	versions := service.NewVersionService(ctx)

	if _, err := apps.Create(ctx, &types.CreateAppRequest{AppKey: "doomed"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for range 2 {
		up := newUpload(t, mgr, "fw.bin", "payload")
		if _, err := versions.Upload(ctx, "doomed", "", []blob.Upload{up}); err != nil {
			t.Fatalf("upload failed: %v", err)
		}
	}

	resp, err := apps.Delete(ctx, "doomed")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if resp.DeletedVersions != 2 {
		t.Errorf("deleted versions = %d, want 2", resp.DeletedVersions)
	}

	if _, err := apps.Get(ctx, "doomed"); !errs.IsCode(err, errs.CodeAppNotFound) {
		t.Fatalf("get after delete = %v, want app not found", err)
	}

	if _, err := apps.Delete(ctx, "doomed"); !errs.IsCode(err, errs.CodeAppNotFound) {
		t.Fatalf("second delete = %v, want app not found", err)
	}
}
