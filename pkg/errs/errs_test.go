package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/yeisme/firmvault/pkg/errs"
)

// TestHTTPStatus 测试错误到状态码的映射.
func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errs.Validation("bad input"), http.StatusBadRequest},
		{errs.Unauthorized(""), http.StatusUnauthorized},
		{errs.InvalidToken(""), http.StatusUnauthorized},
		{errs.Forbidden(""), http.StatusForbidden},
		{errs.AppNotFound("demo"), http.StatusNotFound},
		{errs.VersionNotFound(7), http.StatusNotFound},
		{errs.Conflict("duplicate"), http.StatusConflict},
		{errs.AlreadyExists("App with this key"), http.StatusConflict},
		{errs.Storage("save failed", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := errs.HTTPStatus(c.err); got != c.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.status)
		}
	}
}

// TestWrappedExtraction 测试经过 fmt.Errorf 包装后仍可提取类型.
func TestWrappedExtraction(t *testing.T) {
	base := errs.AppNotFound("firmware")
	wrapped := fmt.Errorf("list versions: %w", base)

	e, ok := errs.As(wrapped)
	if !ok {
		t.Fatal("expected to extract *errs.Error from wrapped error")
	}

	if e.Code != errs.CodeAppNotFound {
		t.Errorf("code = %s, want %s", e.Code, errs.CodeAppNotFound)
	}

	if !errs.IsCode(wrapped, errs.CodeAppNotFound) {
		t.Error("IsCode should match through wrapping")
	}
}

// TestUnwrapCause 测试底层错误通过 Unwrap 可见.
func TestUnwrapCause(t *testing.T) {
	cause := errors.New("disk full")
	err := errs.Storage("save file", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should see the cause")
	}
}

// TestDefaultMessages 测试空消息的默认值.
func TestDefaultMessages(t *testing.T) {
	if e, _ := errs.As(errs.Unauthorized("")); e.Message != "Authentication required" {
		t.Errorf("unexpected default message %q", e.Message)
	}

	if e, _ := errs.As(errs.Forbidden("")); e.Message != "Access denied" {
		t.Errorf("unexpected default message %q", e.Message)
	}
}
