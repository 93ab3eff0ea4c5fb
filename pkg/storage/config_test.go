package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/moodmap/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{ConnectionString: "test-connection"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "models" {
		t.Errorf("container_name: got %s, want models", cfg.ContainerName)
	}
	if cfg.MaxListSize != 50 {
		t.Errorf("max_list_size: got %d, want 50", cfg.MaxListSize)
	}
}

func TestFinalizeClampsMaxListSize(t *testing.T) {
	cfg := storage.Config{ConnectionString: "conn", MaxListSize: 9000}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.MaxListSize != storage.MaxListCap {
		t.Errorf("max_list_size: got %d, want %d", cfg.MaxListSize, storage.MaxListCap)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_CONTAINER", "archives")
	t.Setenv("TEST_ACCOUNT_URL", "https://moodmap.blob.core.windows.net/")
	t.Setenv("TEST_MAX_LIST", "200")

	env := &storage.Env{
		ContainerName: "TEST_CONTAINER",
		AccountURL:    "TEST_ACCOUNT_URL",
		MaxListSize:   "TEST_MAX_LIST",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "archives" {
		t.Errorf("container_name: got %s, want archives", cfg.ContainerName)
	}
	if cfg.AccountURL != "https://moodmap.blob.core.windows.net/" {
		t.Errorf("account_url: got %s", cfg.AccountURL)
	}
	if cfg.MaxListSize != 200 {
		t.Errorf("max_list_size: got %d, want 200", cfg.MaxListSize)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "missing credentials",
			cfg:     storage.Config{ContainerName: "models"},
			wantErr: "connection_string or account_url required",
		},
		{
			name: "connection string only",
			cfg:  storage.Config{ConnectionString: "conn"},
		},
		{
			name: "account url only",
			cfg:  storage.Config{AccountURL: "https://moodmap.blob.core.windows.net/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{
		ContainerName:    "models",
		ConnectionString: "base-conn",
	}

	overlay := storage.Config{ConnectionString: "overlay-conn", MaxListSize: 10}
	base.Merge(&overlay)

	if base.ContainerName != "models" {
		t.Errorf("container_name should remain models, got %s", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
	if base.MaxListSize != 10 {
		t.Errorf("max_list_size: got %d, want 10", base.MaxListSize)
	}
}
