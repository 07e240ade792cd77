package rule_test

import (
	"strings"
	"testing"

	"github.com/yeisme/firmvault/pkg/rule"
)

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}

// TestAppKeyRule 测试 appkey 规则.
func TestAppKeyRule(t *testing.T) {
	valid := []string{"firmware", "my-app", "a", "app-2-beta", "x1-y2"}
	for _, s := range valid {
		if err := rule.ValidateVar(s, "appkey"); err != nil {
			t.Errorf("expected %q to be a valid app key, got %v", s, err)
		}
	}

	invalid := []string{"", "My-App", "app_1", "-app", "app-", "a--b", "app key", strings.Repeat("a", 51)}
	for _, s := range invalid {
		if err := rule.ValidateVar(s, "appkey"); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

// TestVersionNameRule 测试 versionname 规则.
func TestVersionNameRule(t *testing.T) {
	valid := []string{"1.0.0", "v2.3", "beta", "2024-01_rc1", ""}
	for _, s := range valid {
		if err := rule.ValidateVar(s, "versionname"); err != nil {
			t.Errorf("expected %q to be a valid version name, got %v", s, err)
		}
	}

	invalid := []string{"1.0/0", "a b", "v1!", strings.Repeat("9", 51)}
	for _, s := range invalid {
		if err := rule.ValidateVar(s, "versionname"); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

// TestValidateStruct 测试结构体校验.
func TestValidateStruct(t *testing.T) {
	type req struct {
		AppKey     string `rule:"required,appkey"`
		Permission string `rule:"oneof=read write admin"`
	}

	if err := rule.ValidateStruct(req{AppKey: "demo", Permission: "write"}); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}

	if err := rule.ValidateStruct(req{AppKey: "Demo", Permission: "root"}); err == nil {
		t.Error("expected error for invalid struct")
	}
}
