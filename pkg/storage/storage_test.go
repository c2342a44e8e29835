package storage_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/reelsync/pkg/storage"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"valid key", "uploads/abc/episodes.json", nil},
		{"empty key", "", storage.ErrEmptyKey},
		{"traversal", "uploads/../secrets", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.ValidateKey(tt.key)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults container name", func(t *testing.T) {
		cfg := storage.Config{ConnectionString: "UseDevelopmentStorage=true"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if cfg.ContainerName != "uploads" {
			t.Errorf("container: got %s, want uploads", cfg.ContainerName)
		}
	})

	t.Run("requires a credential source", func(t *testing.T) {
		cfg := storage.Config{}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error without connection string or service url")
		}
	})

	t.Run("accepts service url", func(t *testing.T) {
		cfg := storage.Config{ServiceURL: "https://reelsync.blob.core.windows.net/"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize: %v", err)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_CONTAINER", "archive")
		t.Setenv("TEST_STORAGE_CONN", "conn")

		cfg := storage.Config{}
		env := &storage.Env{ContainerName: "TEST_STORAGE_CONTAINER", ConnectionString: "TEST_STORAGE_CONN"}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if cfg.ContainerName != "archive" {
			t.Errorf("container: got %s, want archive", cfg.ContainerName)
		}
	})
}
