package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/yeisme/firmvault/pkg/configs"
	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/types"
	"github.com/yeisme/firmvault/pkg/rule"
)

// SessionClaims 会话令牌负载.密钥信息签入令牌，校验无需查库（无状态，过期即失效）.
type SessionClaims struct {
	KeyID      *uint            `json:"key_id,omitempty"`
	Permission model.Permission `json:"permission"`
	AppScope   []string         `json:"app_scope,omitempty"`
	jwt.RegisteredClaims
}

// SignToken 用 HS256 签发会话令牌.
func SignToken(token *Token) (string, time.Time, error) {
	cfg := configs.GetConfig().Auth
	expiresAt := time.Now().Add(cfg.GetTokenTTL())

	claims := SessionClaims{
		KeyID:      token.KeyID,
		Permission: token.Permission,
		AppScope:   token.AppScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "firmvault",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// VerifyToken 校验会话令牌并还原 Token.签名无效或过期返回 InvalidToken.
func VerifyToken(tokenString string) (*Token, error) {
	cfg := configs.GetConfig().Auth

	var claims SessionClaims

	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errs.InvalidToken("")
	}

	if !claims.Permission.Valid() {
		return nil, errs.InvalidToken("")
	}

	return &Token{
		KeyID:      claims.KeyID,
		Permission: claims.Permission,
		AppScope:   claims.AppScope,
	}, nil
}

// hashKey 计算明文密钥的 SHA-256 十六进制摘要.
func hashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// AuthService 负责 API 密钥的签发、校验与撤销.
type AuthService struct {
	registryService
}

// NewAuthService 创建并返回一个新的 AuthService 实例.
func NewAuthService(c context.Context) *AuthService {
	return &AuthService{newRegistryService(c)}
}

// Login 用 API 密钥换取会话令牌.引导管理员密钥直接获得全局 admin 会话，不查库.
func (s *AuthService) Login(ctx context.Context, plaintext string) (*types.LoginResponse, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return nil, errs.Unauthorized("")
	}

	cfg := configs.GetConfig().Auth
	if cfg.AdminAPIKey != "" && hmac.Equal([]byte(plaintext), []byte(cfg.AdminAPIKey)) {
		token := &Token{Permission: model.PermissionAdmin}

		signed, expiresAt, err := SignToken(token)
		if err != nil {
			return nil, errs.Internal(err)
		}

		return &types.LoginResponse{Token: signed, ExpiresAt: expiresAt, Permission: model.PermissionAdmin}, nil
	}

	var key model.APIKey

	err := s.dbc.DB.WithContext(ctx).
		Where("key_hash = ? AND is_active = ?", hashKey(plaintext), true).
		First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Unauthorized("Invalid API key")
		}

		return nil, errs.Database(err)
	}

	// 登录成功时刷新使用时间，失败不影响登录
	now := time.Now()
	_ = s.dbc.DB.WithContext(ctx).Model(&key).Update("last_used_at", now).Error

	scope, serr := key.AppScope()
	if serr != nil {
		return nil, errs.Internal(serr)
	}

	token := &Token{KeyID: &key.ID, Permission: key.Permission, AppScope: scope}

	signed, expiresAt, err := SignToken(token)
	if err != nil {
		return nil, errs.Internal(err)
	}

	return &types.LoginResponse{
		Token:      signed,
		ExpiresAt:  expiresAt,
		Permission: key.Permission,
		AppScope:   scope,
	}, nil
}

const apiKeyBytes = 32

// CreateKey 创建 API 密钥.明文仅此一次返回，库中只存哈希.
func (s *AuthService) CreateKey(ctx context.Context, req *types.CreateAPIKeyRequest, creator *Token) (*types.CreateAPIKeyResponse, error) {
	if !req.Permission.Valid() {
		return nil, errs.Validation("Invalid permission: must be read, write or admin")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		return nil, errs.Validation("Key name is required and must be at most 100 chars")
	}

	for _, appKey := range req.AppScope {
		if err := rule.ValidateVar(appKey, "required,appkey"); err != nil {
			return nil, errs.Validation("Invalid app key in scope: " + appKey)
		}
	}

	// scope 里的应用必须真实存在，防止给不存在的 key 发授权
	if len(req.AppScope) > 0 {
		var count int64
		err := s.dbc.DB.WithContext(ctx).
			Model(&model.App{}).
			Where("app_key IN ?", req.AppScope).
			Count(&count).Error
		if err != nil {
			return nil, errs.Database(err)
		}

		if count != int64(len(req.AppScope)) {
			return nil, errs.Validation("One or more apps in scope do not exist")
		}
	}

	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, errs.Internal(err)
	}

	plaintext := hex.EncodeToString(raw)

	key := model.APIKey{
		KeyHash:    hashKey(plaintext),
		Name:       name,
		Permission: req.Permission,
		IsActive:   true,
	}
	if creator != nil {
		key.CreatedByKeyID = creator.KeyID
	}

	if err := key.SetAppScope(req.AppScope); err != nil {
		return nil, errs.Internal(err)
	}

	if err := s.dbc.DB.WithContext(ctx).Create(&key).Error; err != nil {
		return nil, translateDBError(err)
	}

	return &types.CreateAPIKeyResponse{
		Key:    plaintext,
		APIKey: types.ToAPIKeyResponse(&key),
	}, nil
}

// ListKeys 返回全部密钥（含已撤销），不含任何密钥材料.
func (s *AuthService) ListKeys(ctx context.Context) (*types.ListAPIKeysResponse, error) {
	var keys []model.APIKey
	if err := s.dbc.DB.WithContext(ctx).Order("id ASC").Find(&keys).Error; err != nil {
		return nil, errs.Database(err)
	}

	resp := &types.ListAPIKeysResponse{Keys: make([]types.APIKeyResponse, 0, len(keys)), Total: len(keys)}
	for i := range keys {
		resp.Keys = append(resp.Keys, types.ToAPIKeyResponse(&keys[i]))
	}

	return resp, nil
}

// RevokeKey 撤销密钥（软删除，保留审计来源）.
func (s *AuthService) RevokeKey(ctx context.Context, keyID uint) error {
	res := s.dbc.DB.WithContext(ctx).Model(&model.APIKey{}).
		Where("id = ? AND is_active = ?", keyID, true).
		Update("is_active", false)
	if res.Error != nil {
		return errs.Database(res.Error)
	}

	if res.RowsAffected == 0 {
		return errs.NotFound("API key")
	}

	return nil
}
