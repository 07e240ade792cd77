package blob_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yeisme/firmvault/pkg/configs"
	"github.com/yeisme/firmvault/pkg/internal/storage/blob"
)

func newFSStore(t *testing.T) *blob.FSStore {
	t.Helper()

	base := t.TempDir()

	store, err := blob.NewFSStore(&configs.BlobConfig{
		Type:    configs.BlobFS,
		Root:    filepath.Join(base, "files"),
		TempDir: filepath.Join(base, "tmp"),
	})
	if err != nil {
		t.Fatalf("create fs store: %v", err)
	}

	return store
}

func writeTemp(t *testing.T, store *blob.FSStore, content string) blob.Upload {
	t.Helper()

	f, err := os.CreateTemp(store.TempDir(), "up-*")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}

	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp: %v", err)
	}

	_ = f.Close()

	return blob.Upload{TempPath: f.Name(), OriginalName: "fw.bin", Size: int64(len(content))}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"fw.bin", "fw.bin"},
		{"../../etc/passwd", "etcpasswd"},
		{`a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"  spaced.bin  ", "spaced.bin"},
		{"..", ""},
	}

	for _, tc := range cases {
		if got := blob.SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFSStoreSaveAndOpen(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	content := "firmware image payload"
	up := writeTemp(t, store, content)

	saved, err := store.SaveFile(ctx, "my-app", "1.0.0", up)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if saved.FileName != "fw.bin" {
		t.Errorf("file name = %q, want fw.bin", saved.FileName)
	}

	if saved.FileSize != int64(len(content)) {
		t.Errorf("file size = %d, want %d", saved.FileSize, len(content))
	}

	sum := sha256.Sum256([]byte(content))
	if saved.FileHash != hex.EncodeToString(sum[:]) {
		t.Errorf("hash mismatch: %s", saved.FileHash)
	}

	// 临时文件已被消费
	if _, err := os.Stat(up.TempPath); !os.IsNotExist(err) {
		t.Error("temp file should be consumed after save")
	}

	rc, size, err := store.Open(ctx, "my-app", "1.0.0", "fw.bin")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer rc.Close()

	if size != int64(len(content)) {
		t.Errorf("open size = %d, want %d", size, len(content))
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if string(data) != content {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestFSStoreSaveRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)
	up := writeTemp(t, store, "x")
	up.OriginalName = ".."

	if _, err := store.SaveFile(ctx, "my-app", "1.0.0", up); err == nil {
		t.Fatal("save with unusable name should fail")
	}

	// 失败时临时文件保留，由调用方清理
	if _, err := os.Stat(up.TempPath); err != nil {
		t.Errorf("temp file should survive failed save: %v", err)
	}
}

func TestFSStoreOpenBlocksTraversal(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	up := writeTemp(t, store, "secret")
	if _, err := store.SaveFile(ctx, "my-app", "1.0.0", up); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, _, err := store.Open(ctx, "my-app", "1.0.0", "../1.0.0/fw.bin"); err == nil {
		t.Fatal("traversal name should not resolve")
	}
}

func TestFSStoreDeleteVersionDir(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	for _, v := range []string{"1.0.0", "1.0.1"} {
		up := writeTemp(t, store, "data-"+v)
		if _, err := store.SaveFile(ctx, "my-app", v, up); err != nil {
			t.Fatalf("save %s failed: %v", v, err)
		}
	}

	if err := store.DeleteFile(ctx, "my-app", "1.0.0", "fw.bin"); err != nil {
		t.Fatalf("delete file failed: %v", err)
	}

	if err := store.DeleteVersionDir(ctx, "my-app", "1.0.0"); err != nil {
		t.Fatalf("delete version dir failed: %v", err)
	}

	if _, _, err := store.Open(ctx, "my-app", "1.0.0", "fw.bin"); err == nil {
		t.Fatal("deleted version file should be gone")
	}

	// 其他版本不受影响
	rc, _, err := store.Open(ctx, "my-app", "1.0.1", "fw.bin")
	if err != nil {
		t.Fatalf("sibling version should survive: %v", err)
	}

	_ = rc.Close()

	// 已不存在的目录重复删除不报错
	if err := store.DeleteVersionDir(ctx, "my-app", "1.0.0"); err != nil {
		t.Fatalf("repeat delete should be a no-op: %v", err)
	}
}

func TestFSStoreDeleteVersionDirKeepsNewFiles(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	up := writeTemp(t, store, "late arrival")
	if _, err := store.SaveFile(ctx, "my-app", "1.0.0", up); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// 目录非空时（比如并发上传刚写入文件）不得整目录删除
	if err := store.DeleteVersionDir(ctx, "my-app", "1.0.0"); err != nil {
		t.Fatalf("delete version dir failed: %v", err)
	}

	rc, _, err := store.Open(ctx, "my-app", "1.0.0", "fw.bin")
	if err != nil {
		t.Fatalf("file in non-empty dir must survive: %v", err)
	}

	_ = rc.Close()
}

func TestFSStoreDeleteAppDir(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	up := writeTemp(t, store, "data")
	if _, err := store.SaveFile(ctx, "my-app", "1.0.0", up); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.DeleteAppDir(ctx, "my-app"); err != nil {
		t.Fatalf("delete app dir failed: %v", err)
	}

	if _, _, err := store.Open(ctx, "my-app", "1.0.0", "fw.bin"); err == nil {
		t.Fatal("deleted app files should be gone")
	}
}

func TestFSStoreCleanupTemp(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	stale := writeTemp(t, store, "stale")
	fresh := writeTemp(t, store, "fresh")

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale.TempPath, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := store.CleanupTemp(ctx, time.Hour)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(stale.TempPath); !os.IsNotExist(err) {
		t.Error("stale temp file should be removed")
	}

	if _, err := os.Stat(fresh.TempPath); err != nil {
		t.Error("fresh temp file should survive")
	}
}
