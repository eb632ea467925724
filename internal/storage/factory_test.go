package storage

import (
	"context"
	"path/filepath"
	"testing"

	"cgiad/internal/config"
	"cgiad/internal/ports"
)

func TestNewProviderLocalFS(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	p, err := NewProvider(context.Background(), config.StorageConfig{Provider: "localfs", LocalRoot: root}, &config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Provider() != "localfs" {
		t.Errorf("expected localfs, got %s", p.Provider())
	}
	if _, ok := p.(ports.LocalPather); !ok {
		t.Error("localfs provider should expose local paths")
	}
}

func TestNewProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		sc   config.StorageConfig
	}{
		{"unknown", config.StorageConfig{Provider: "ftp"}},
		{"gdrive without credentials", config.StorageConfig{Provider: "gdrive"}},
		{"s3 without bucket", config.StorageConfig{Provider: "s3"}},
		{"localfs without root", config.StorageConfig{Provider: "localfs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(context.Background(), tt.sc, &config.Config{}); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
