// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/modlink/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "not_found_error",
			code:    errors.ErrNotFound,
			message: "package not found",
			wantStr: "[NOT_FOUND] package not found",
		},
		{
			name:    "missing_dependency_error",
			code:    errors.ErrMissingDependency,
			message: "dependency bar@1.0.0 is not installed",
			wantStr: "[MISSING_DEPENDENCY] dependency bar@1.0.0 is not installed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}

			if err.Message != tt.message {
				t.Errorf("New() message = %q, want %q", err.Message, tt.message)
			}

			if err.Details == nil {
				t.Error("New() details should be initialized")
			}

			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := errors.Newf(errors.ErrPlanInvalid, "package %q listed %d times", "foo@1.0.0", 2)

	want := `package "foo@1.0.0" listed 2 times`
	if err.Message != want {
		t.Errorf("Newf() message = %q, want %q", err.Message, want)
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrHardlink, "linking foo@1.0.0")

		if err.Code != errors.ErrHardlink {
			t.Errorf("Wrap() code = %v, want %v", err.Code, errors.ErrHardlink)
		}

		if err.Wrapped != baseErr {
			t.Error("Wrap() should preserve wrapped error")
		}

		wantStr := "[HARDLINK] linking foo@1.0.0: base error"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		err := errors.Wrap(nil, errors.ErrInternal, "internal error")
		if err != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})

	t.Run("wrapf_formats_message", func(t *testing.T) {
		err := errors.Wrapf(baseErr, errors.ErrSymlinkCreate, "symlinking %s", "node_modules/bar")
		if err.Message != "symlinking node_modules/bar" {
			t.Errorf("Wrapf() message = %q", err.Message)
		}
	})
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrFileAccess, "cannot stat").
		WithDetail("path", "/store/foo@1.0.0/package").
		WithDetail("phase", "hardlink")

	if err.Details["path"] != "/store/foo@1.0.0/package" {
		t.Errorf("WithDetail() path = %v", err.Details["path"])
	}

	if err.Details["phase"] != "hardlink" {
		t.Errorf("WithDetail() phase = %v", err.Details["phase"])
	}
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrFetchFailed, "error 1")
	err2 := errors.New(errors.ErrFetchFailed, "error 2")
	err3 := errors.New(errors.ErrInternal, "error 3")

	t.Run("same_code_is_equal", func(t *testing.T) {
		if !err1.Is(err2) {
			t.Error("Is() should return true for same code")
		}
	})

	t.Run("different_code_not_equal", func(t *testing.T) {
		if err1.Is(err3) {
			t.Error("Is() should return false for different codes")
		}
	})

	t.Run("works_with_errors_Is", func(t *testing.T) {
		if !stderrors.Is(err1, err2) {
			t.Error("errors.Is() should work with LinkError")
		}
	})
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{
			name:     "matching_code",
			err:      errors.New(errors.ErrStorePath, "no store entry"),
			code:     errors.ErrStorePath,
			expected: true,
		},
		{
			name:     "different_code",
			err:      errors.New(errors.ErrStorePath, "no store entry"),
			code:     errors.ErrInternal,
			expected: false,
		},
		{
			name:     "wrapped_error",
			err:      errors.Wrap(stderrors.New("base"), errors.ErrManifestParse, "bad json"),
			code:     errors.ErrManifestParse,
			expected: true,
		},
		{
			name:     "plain_error",
			err:      stderrors.New("standard error"),
			code:     errors.ErrNotFound,
			expected: false,
		},
		{
			name:     "nil_error",
			err:      nil,
			code:     errors.ErrNotFound,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.IsErrorCode(tt.err, tt.code); got != tt.expected {
				t.Errorf("IsErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected errors.ErrorCode
	}{
		{
			name:     "link_error",
			err:      errors.New(errors.ErrConfigLoad, "cannot read config"),
			expected: errors.ErrConfigLoad,
		},
		{
			name:     "standard_error",
			err:      stderrors.New("standard error"),
			expected: errors.ErrUnknown,
		},
		{
			name:     "nil_error",
			err:      nil,
			expected: errors.ErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	rootCause := stderrors.New("root cause")
	fileErr := errors.Wrap(rootCause, errors.ErrFileAccess, "cannot read manifest")
	planErr := errors.Wrap(fileErr, errors.ErrPlanInvalid, "failed to load plan")

	t.Run("top_level_has_correct_code", func(t *testing.T) {
		if !errors.IsErrorCode(planErr, errors.ErrPlanInvalid) {
			t.Error("Top level should have ErrPlanInvalid code")
		}
	})

	t.Run("can_find_middle_error", func(t *testing.T) {
		var linkErr *errors.LinkError
		if stderrors.As(planErr.Unwrap(), &linkErr) {
			if !errors.IsErrorCode(linkErr, errors.ErrFileAccess) {
				t.Error("Middle error should have ErrFileAccess code")
			}
		}
	})

	t.Run("can_find_root_cause", func(t *testing.T) {
		if !stderrors.Is(planErr, rootCause) {
			t.Error("Should find root cause with errors.Is")
		}
	})
}
