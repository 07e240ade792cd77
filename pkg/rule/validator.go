// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
package rule

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

var (
	// appKeyRe 应用 key：小写字母数字段，可用单个 - 分隔.
	appKeyRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	// versionNameRe 版本名：字母数字与 . _ - .
	versionNameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]*$`)
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建并注册 tag name 函数.
func initValidator() {
	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
			inst.SetTagName("rule")
			registerDomainRules(inst)

			return
		}
	}

	inst = validator.New()
	inst.SetTagName("rule")
	registerDomainRules(inst)
}

// registerDomainRules 注册注册中心特有的校验规则.
func registerDomainRules(v *validator.Validate) {
	_ = v.RegisterValidation("appkey", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()

		return len(s) <= 50 && appKeyRe.MatchString(s)
	})

	_ = v.RegisterValidation("versionname", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()

		return len(s) <= 50 && versionNameRe.MatchString(s)
	})
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidateStruct 对结构体执行完整校验，返回原始 error.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("my-app", "required,appkey").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}
