package handle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/firmvault/pkg/configs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/router"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/internal/storage"
	"github.com/yeisme/firmvault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/firmvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/firmvault/pkg/internal/storage/kv"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// newTestEngine 构造带存储中间件与完整路由的测试引擎.
func newTestEngine(t *testing.T) *gin.Engine {
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

	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(middleware.StorageMiddleware(mgr))
	router.RegisterAPIRoutes(engine)

	return engine
}

// signToken 为测试签发一个会话令牌.
func signToken(t *testing.T, permission model.Permission, scope []string) string {
	t.Helper()

	raw, _, err := service.SignToken(&service.Token{Permission: permission, AppScope: scope})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return raw
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}

		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

// uploadVersion 以 multipart 形式上传一个单文件版本.
func uploadVersion(t *testing.T, engine *gin.Engine, token, appKey, versionName, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("files", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}

	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}

	if versionName != "" {
		if err := mw.WriteField("version_name", versionName); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/apps/"+appKey+"/versions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

func TestAppVersionFlowHTTP(t *testing.T) {
	engine := newTestEngine(t)
	admin := signToken(t, model.PermissionAdmin, nil)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/apps", admin,
		map[string]any{"app_key": "sensor-hub", "is_public": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("create app: got %d, want 201: %s", w.Code, w.Body.String())
	}

	w = uploadVersion(t, engine, admin, "sensor-hub", "", "firmware.bin", "binary-payload")
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: got %d, want 201: %s", w.Code, w.Body.String())
	}

	var version struct {
		VersionName string `json:"version_name"`
		IsActive    bool   `json:"is_active"`
		Files       []struct {
			FileName    string `json:"file_name"`
			DownloadURL string `json:"download_url"`
		} `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &version); err != nil {
		t.Fatalf("decode upload body: %v", err)
	}

	if version.VersionName != "1.0.0" {
		t.Errorf("first version name = %q, want 1.0.0", version.VersionName)
	}

	if !version.IsActive {
		t.Error("uploaded version should be active")
	}

	// 公开应用允许匿名查询 latest
	w = doJSON(t, engine, http.MethodGet, "/api/v1/apps/sensor-hub/latest", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous latest: got %d, want 200: %s", w.Code, w.Body.String())
	}

	// 公开应用允许匿名下载
	req := httptest.NewRequest(http.MethodGet, version.Files[0].DownloadURL, nil)
	dl := httptest.NewRecorder()
	engine.ServeHTTP(dl, req)

	if dl.Code != http.StatusOK {
		t.Fatalf("download: got %d, want 200: %s", dl.Code, dl.Body.String())
	}

	if dl.Body.String() != "binary-payload" {
		t.Errorf("downloaded content = %q", dl.Body.String())
	}
}

func TestLatestPrivateAccess(t *testing.T) {
	engine := newTestEngine(t)
	admin := signToken(t, model.PermissionAdmin, nil)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/apps", admin, map[string]any{"app_key": "internal-tool"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create app: got %d: %s", w.Code, w.Body.String())
	}

	if w := uploadVersion(t, engine, admin, "internal-tool", "2.0", "tool.tar.gz", "x"); w.Code != http.StatusCreated {
		t.Fatalf("upload: got %d: %s", w.Code, w.Body.String())
	}

	// 匿名访问私有应用
	if w := doJSON(t, engine, http.MethodGet, "/api/v1/apps/internal-tool/latest", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous latest on private app: got %d, want 401", w.Code)
	}

	// 作用域外的密钥
	outOfScope := signToken(t, model.PermissionRead, []string{"other-app"})
	if w := doJSON(t, engine, http.MethodGet, "/api/v1/apps/internal-tool/latest", outOfScope, nil); w.Code != http.StatusForbidden {
		t.Errorf("out-of-scope latest: got %d, want 403", w.Code)
	}

	// 作用域内的只读密钥
	scoped := signToken(t, model.PermissionRead, []string{"internal-tool"})
	if w := doJSON(t, engine, http.MethodGet, "/api/v1/apps/internal-tool/latest", scoped, nil); w.Code != http.StatusOK {
		t.Errorf("scoped latest: got %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestCheckFileAccess(t *testing.T) {
	engine := newTestEngine(t)
	admin := signToken(t, model.PermissionAdmin, nil)

	if w := doJSON(t, engine, http.MethodPost, "/api/v1/apps", admin,
		map[string]any{"app_key": "public-app", "is_public": true}); w.Code != http.StatusCreated {
		t.Fatalf("create app: got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/check-file-access", nil)
	req.Header.Set("X-Original-URI", "/files/public-app/1.0.0/fw.bin")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("public check: got %d, want 200: %s", w.Code, w.Body.String())
	}

	// 缺失头
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/check-file-access", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("missing header: got %d, want 400", w.Code)
	}

	// 私有应用匿名
	if w := doJSON(t, engine, http.MethodPost, "/api/v1/apps", admin,
		map[string]any{"app_key": "private-app"}); w.Code != http.StatusCreated {
		t.Fatalf("create private app: got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/check-file-access", nil)
	req.Header.Set("X-Original-URI", "/files/private-app/1.0.0/fw.bin")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("private anonymous check: got %d, want 401", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	engine := newTestEngine(t)

	if w := doJSON(t, engine, http.MethodGet, "/api/v1/apps", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("list apps without token: got %d, want 401", w.Code)
	}

	// read 权限不足以创建应用
	reader := signToken(t, model.PermissionRead, nil)
	if w := doJSON(t, engine, http.MethodPost, "/api/v1/apps", reader,
		map[string]any{"app_key": "nope"}); w.Code != http.StatusForbidden {
		t.Errorf("create app with read token: got %d, want 403", w.Code)
	}

	// 错误响应带有机器可读的 code
	w := doJSON(t, engine, http.MethodGet, "/api/v1/apps", "", nil)
	if !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
		t.Errorf("error body missing code: %s", w.Body.String())
	}
}

func TestDeleteActiveVersionRejected(t *testing.T) {
	engine := newTestEngine(t)
	admin := signToken(t, model.PermissionAdmin, nil)

	if w := doJSON(t, engine, http.MethodPost, "/api/v1/apps", admin,
		map[string]any{"app_key": "router-fw", "is_public": true}); w.Code != http.StatusCreated {
		t.Fatalf("create app: got %d", w.Code)
	}

	w := uploadVersion(t, engine, admin, "router-fw", "1.0.0", "fw.bin", "v1")
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: got %d: %s", w.Code, w.Body.String())
	}

	var version struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &version); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doJSON(t, engine, http.MethodDelete,
		"/api/v1/apps/router-fw/versions/"+strconv.FormatUint(uint64(version.ID), 10), admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("delete active version: got %d, want 400: %s", w.Code, w.Body.String())
	}
}
