package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "misuse",
			code:    CodeMissingContainer,
			wantMsg: "Mount called without a container",
			wantCat: CategoryMisuse,
		},
		{
			name:    "reactive",
			code:    CodeNotGetter,
			wantMsg: "Computed member is not a getter",
			wantCat: CategoryReactive,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	cause := fmt.Errorf("database offline")
	err := New(CodeHookFailed).WithOp("Counter.BeforeMount").Wrap(cause)

	want := "E110: Counter.BeforeMount: Lifecycle hook failed: database offline"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is did not find the wrapped cause")
	}
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("mount: %w", New(CodeMissingContainer).WithComponent("Counter"))

	if !Is(err, ErrMissingContainer) {
		t.Error("Is(err, ErrMissingContainer) = false, want true")
	}
	if Is(err, ErrNotGetter) {
		t.Error("Is(err, ErrNotGetter) = true, want false")
	}
	if !HasCode(err, CodeMissingContainer) {
		t.Error("HasCode = false, want true")
	}
}

func TestCatchConvertsPanics(t *testing.T) {
	err := Catch("Counter.Render", func() error {
		panic("nil map")
	})

	var e *Error
	if !As(err, &e) {
		t.Fatalf("Catch returned %T, want *Error", err)
	}
	if e.Code != CodePanic {
		t.Errorf("Code = %q, want %q", e.Code, CodePanic)
	}
	if e.Op != "Counter.Render" {
		t.Errorf("Op = %q", e.Op)
	}
	if e.Stack == "" {
		t.Error("Stack is empty")
	}
	if !strings.Contains(err.Error(), "nil map") {
		t.Errorf("Error() = %q, want panic value", err.Error())
	}
}

func TestCatchPassesThroughErrors(t *testing.T) {
	want := fmt.Errorf("plain")
	if got := Catch("op", func() error { return want }); got != want {
		t.Errorf("Catch = %v, want %v", got, want)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeJobFailed) != nil {
		t.Error("FromError(nil) != nil")
	}

	existing := New(CodePatchFailed)
	if FromError(existing, CodeJobFailed) != existing {
		t.Error("FromError rewrapped an *Error")
	}

	wrapped := FromError(fmt.Errorf("x"), CodeJobFailed)
	if wrapped.Code != CodeJobFailed {
		t.Errorf("Code = %q, want %q", wrapped.Code, CodeJobFailed)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeNotGetter).WithComponent("Counter").WithOp("ComputedMethod(Total)")
	out := err.Format()

	for _, want := range []string{"ERROR E200", "Counter in ComputedMethod(Total)", "Hint:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != "E200 [reactive] ComputedMethod(Total): Computed member is not a getter" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestPrint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Print(&buf, fmt.Errorf("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Print() = %q", buf.String())
	}
}

func TestAllCodesHaveTemplates(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has incomplete template %+v", code, tmpl)
		}
	}
}
