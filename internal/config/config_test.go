package config

import (
	"errors"
	"strings"
	"testing"
)

// validConfig returns a Config that passes Validate.
func validConfig() *Config {
	return &Config{
		ServerURL:      "http://localhost:8001",
		Model:          DefaultModel,
		Branch:         DefaultBranch,
		HistoryLimit:   DefaultHistoryLimit,
		CanvasAutoOpen: DefaultCanvasAutoOpen,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()

	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() = %v, want ErrConfigNil", err)
	}
}

func TestValidate_ServerURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http", "http://localhost:8001", false},
		{"https", "https://api.example.com", false},
		{"empty", "", true},
		{"no scheme", "localhost:8001", true},
		{"bad scheme", "ftp://example.com", true},
		{"garbage", "://///", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			cfg.ServerURL = tt.url
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidServerURL) {
				t.Errorf("Validate() = %v, want ErrInvalidServerURL", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidate_HistoryLimitRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		limit   int
		wantErr bool
	}{
		{"minimum", MinHistoryLimit, false},
		{"maximum", MaxHistoryLimit, false},
		{"below minimum", MinHistoryLimit - 1, true},
		{"above maximum", MaxHistoryLimit + 1, true},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			cfg.HistoryLimit = tt.limit
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidHistoryLimit) {
				t.Errorf("Validate() = %v, want ErrInvalidHistoryLimit", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidate_EmptyModel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Model = ""
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("Validate() = %v, want ErrInvalidModel", err)
	}
}

func TestValidate_EmptyBranchDefaultsToMain(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Branch = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if cfg.Branch != DefaultBranch {
		t.Errorf("Branch = %q, want %q", cfg.Branch, DefaultBranch)
	}
}

func TestValidate_NegativeThreshold(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CanvasAutoOpen = -1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("Validate() = %v, want ErrInvalidThreshold", err)
	}
}

func TestString_MasksToken(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Token = "super-secret-token"
	s := cfg.String()
	if strings.Contains(s, "super-secret-token") {
		t.Errorf("String() leaked the token: %q", s)
	}
	if !strings.Contains(s, "********") {
		t.Errorf("String() missing mask: %q", s)
	}
}
