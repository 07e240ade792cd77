package service

import (
	"slices"

	"github.com/yeisme/firmvault/pkg/internal/model"
)

// Token 是请求携带的已验证会话信息.KeyID 为空表示引导管理员密钥登录的会话.
// AppScope 为 nil 表示全局作用域；非 nil 空切片表示不覆盖任何应用.
type Token struct {
	KeyID      *uint
	Permission model.Permission
	AppScope   []string
}

// PermissionAtLeast 判断持有权限是否不低于要求，read(1) < write(2) < admin(3).
func PermissionAtLeast(held, required model.Permission) bool {
	return held.Level() >= required.Level()
}

// AppAccessAllowed 判断令牌是否可操作指定应用.
// 全局作用域（nil）或 admin 权限总是放行，否则要求 appKey 在白名单内；
// 非 nil 空白名单不放行任何应用，伪造空 app_scope 声明的令牌拿不到全局权限.
func AppAccessAllowed(token *Token, appKey string) bool {
	if token == nil {
		return false
	}

	if token.AppScope == nil || token.Permission == model.PermissionAdmin {
		return true
	}

	return slices.Contains(token.AppScope, appKey)
}

// LatestReadAllowed 判断 latest 查询/文件下载是否放行.
// 公开应用对任何请求开放；私有应用要求持有令牌且作用域覆盖该应用.
// 返回值：(allowed, authRequired)，authRequired 为 true 表示因缺少令牌被拒（401 而非 403）.
func LatestReadAllowed(app *model.App, token *Token) (allowed, authRequired bool) {
	if app.IsPublic {
		return true, false
	}

	if token == nil {
		return false, true
	}

	return AppAccessAllowed(token, app.AppKey), false
}
