package errors

import (
	"strings"
	"testing"
)

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Core", false},
		{"valid module path", "github.com/acme/core", false},
		{"valid relative csproj", "src/App/App.csproj", false},
		{"valid with dots", "Acme.Core.Tests", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 600), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidProject) {
				t.Errorf("ValidateProjectName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidProject)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	allowed := []string{"dot", "dgml", "json", "svg"}
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"single", []string{"dot"}, false},
		{"multiple", []string{"dot", "dgml", "svg"}, false},
		{"empty", nil, false},
		{"invalid", []string{"gif"}, true},
		{"mixed", []string{"dot", "gif"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormats(tt.formats, allowed)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidFormat) {
				t.Errorf("ValidateFormats(%v) code = %v", tt.formats, GetCode(err))
			}
		})
	}
}

func TestValidateMode(t *testing.T) {
	allowed := []string{"deepest", "all"}
	if err := ValidateMode("all", allowed); err != nil {
		t.Errorf("ValidateMode(all) = %v", err)
	}
	err := ValidateMode("some", allowed)
	if !Is(err, ErrCodeInvalidMode) {
		t.Errorf("ValidateMode(some) = %v, want %s", err, ErrCodeInvalidMode)
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"out/graph", false},
		{"/tmp/graph", false},
		{".", true},
		{"out/", true},
		{"foo\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidProject,
		ErrCodeInvalidFormat,
		ErrCodeInvalidMode,
		ErrCodeInvalidPath,
		ErrCodeInvalidWorkspace,
		ErrCodeNotFound,
		ErrCodeUnresolvedProject,
		ErrCodeInconsistent,
		ErrCodeLimitExceeded,
		ErrCodeToolNotFound,
		ErrCodeToolFailed,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
