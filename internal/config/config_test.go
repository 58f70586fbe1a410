package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxDictionaryEditDistance != 2 {
		t.Errorf("max_dictionary_edit_distance = %d, want 2", cfg.MaxDictionaryEditDistance)
	}
	if cfg.CountThreshold != 2 {
		t.Errorf("count_threshold = %d, want 2", cfg.CountThreshold)
	}
	if cfg.ChunkSize != 32*1024 {
		t.Errorf("chunk_size = %d, want %d", cfg.ChunkSize, 32*1024)
	}
	if cfg.MemoryPages != 256 {
		t.Errorf("memory_pages = %d, want 256", cfg.MemoryPages)
	}
	if cfg.Debug {
		t.Error("debug enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	content := `max_dictionary_edit_distance: 3
chunk_size: 1024
memory_pages: 512
debug: true
contract_path: /opt/spell/contract.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxDictionaryEditDistance != 3 {
		t.Errorf("max_dictionary_edit_distance = %d, want 3", cfg.MaxDictionaryEditDistance)
	}
	if cfg.ChunkSize != 1024 {
		t.Errorf("chunk_size = %d, want 1024", cfg.ChunkSize)
	}
	if cfg.MemoryPages != 512 {
		t.Errorf("memory_pages = %d, want 512", cfg.MemoryPages)
	}
	if !cfg.Debug {
		t.Error("debug not picked up from file")
	}
	if cfg.ContractPath != "/opt/spell/contract.yaml" {
		t.Errorf("contract_path = %q", cfg.ContractPath)
	}
	// Unset fields keep their defaults.
	if cfg.CountThreshold != 2 {
		t.Errorf("count_threshold = %d, want default 2", cfg.CountThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/bridge.yaml"); err == nil {
		t.Fatal("Load succeeded for a missing path")
	}
}
