package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/firmvault/pkg/configs"
	ctxPkg "github.com/yeisme/firmvault/pkg/context"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/storage"
	"github.com/yeisme/firmvault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/firmvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/firmvault/pkg/internal/storage/kv"
)

// newTestCtx 构造带有内嵌数据库与临时文件存储的请求上下文.
func newTestCtx(t *testing.T) (context.Context, *storage.Manager) {
	t.Helper()

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("init config: %v", err)
	}

	base := t.TempDir()

	gdb, err := gorm.Open(
		sqlite.Open("file:"+filepath.Join(base, "registry.db")+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		},
	)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := gdb.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	bs, err := blob.NewFSStore(&configs.BlobConfig{
		Type:    configs.BlobFS,
		Root:    filepath.Join(base, "files"),
		TempDir: filepath.Join(base, "tmp"),
	})
	if err != nil {
		t.Fatalf("create blob store: %v", err)
	}

	kvStore, err := kvc.NewKVStore(context.Background(), kvc.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create kv store: %v", err)
	}

	mgr := &storage.Manager{
		DB:   &dbc.Client{DB: gdb},
		Blob: bs,
		KV:   &kvc.Client{KVStore: kvStore},
	}

	return ctxPkg.WithStorageManager(context.Background(), mgr), mgr
}

// newUpload 在临时目录写入一个待上传文件.
func newUpload(t *testing.T, mgr *storage.Manager, fileName, content string) blob.Upload {
	t.Helper()

	f, err := os.CreateTemp(mgr.Blob.TempDir(), "up-*")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}

	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp: %v", err)
	}

	_ = f.Close()

	return blob.Upload{TempPath: f.Name(), OriginalName: fileName, Size: int64(len(content))}
}
