package validator

// Environment names become directory names and tracked paths become file
// paths under both the project root and the snapshot root. These tests keep
// both from escaping their roots.

import (
	"errors"
	"testing"

	"github.com/OpenGG/zconfig/internal/zconfig/domain"
)

func TestValidateName_ValidNames(t *testing.T) {
	v := New()

	validNames := []string{
		"dev",
		"prod",
		"stage-eu",
		"qa_2",
		"v1.2.3",
		"UPPERCASE",
	}

	for _, name := range validNames {
		t.Run(name, func(t *testing.T) {
			valid, err := v.ValidateName(name)
			if !valid || err != nil {
				t.Errorf("expected valid for %q, got valid=%v err=%v", name, valid, err)
			}
		})
	}
}

func TestValidateName_InvalidNames(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty string", "", domain.ErrEnvNameEmpty},
		{"only spaces", "   ", domain.ErrEnvNameEmpty},
		{"single dot", ".", domain.ErrEnvNameDot},
		{"double dot", "..", domain.ErrEnvNameDot},
		{"null byte", "dev\x00", domain.ErrEnvNameNullByte},
		{"control char", "dev\x01", domain.ErrEnvNameNonPrintable},
		{"unicode", "entorno-ñ", domain.ErrEnvNameNonPrintable},
		{"slash", "dev/prod", domain.ErrEnvNameInvalidChars},
		{"backslash", "dev\\prod", domain.ErrEnvNameInvalidChars},
		{"colon", "dev:1", domain.ErrEnvNameInvalidChars},
		{"reserved", "CON", domain.ErrEnvNameReserved},
		{"reserved lowercase", "lpt1", domain.ErrEnvNameReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := v.ValidateName(tt.input)
			if valid {
				t.Fatalf("expected %q to be invalid", tt.input)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	v := New()

	got, err := v.NormalizeName("  dev  ")
	if err != nil {
		t.Fatalf("NormalizeName: %v", err)
	}
	if got != "dev" {
		t.Errorf("expected 'dev', got %q", got)
	}

	if _, err := v.NormalizeName("a/b"); !errors.Is(err, domain.ErrEnvNameInvalidChars) {
		t.Errorf("expected invalid chars error, got %v", err)
	}
}

func TestNormalizePath(t *testing.T) {
	v := New()

	tests := []struct {
		input string
		want  string
	}{
		{"config.json", "config.json"},
		{"./config.json", "config.json"},
		{"conf//stage/.env", "conf/stage/.env"},
		{"conf/../.env", ".env"},
		{" .env ", ".env"},
		{".zconfigrc", ".zconfigrc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := v.NormalizePath(tt.input)
			if err != nil {
				t.Fatalf("NormalizePath(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePath_Rejects(t *testing.T) {
	v := New()

	tests := []struct {
		input string
		want  error
	}{
		{"", domain.ErrPathEmpty},
		{".", domain.ErrPathEmpty},
		{"/etc/passwd", domain.ErrPathAbsolute},
		{"..", domain.ErrPathEscapes},
		{"../other/.env", domain.ErrPathEscapes},
		{"conf/../../.env", domain.ErrPathEscapes},
		{".zconfig/config.json", domain.ErrPathInWorkspace},
		{".zconfig", domain.ErrPathInWorkspace},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if _, err := v.NormalizePath(tt.input); !errors.Is(err, tt.want) {
				t.Errorf("NormalizePath(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}
