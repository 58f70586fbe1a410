package config

import (
	"github.com/spf13/viper"
)

// BridgeConfig holds construction-time configuration for a bridge: facade
// options, runtime limits, and the optional contract manifest override.
// Configuration is always passed explicitly; there are no process-wide
// mutable defaults.
type BridgeConfig struct {
	// Maximum dictionary edit distance, fixed at guest initialization.
	MaxDictionaryEditDistance uint32 `mapstructure:"max_dictionary_edit_distance"`
	// Minimum frequency for a dictionary entry to participate.
	CountThreshold uint32 `mapstructure:"count_threshold"`
	// Chunk size for streaming dictionary ingestion (bytes).
	ChunkSize int `mapstructure:"chunk_size"`
	// Memory limit per guest module (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages"`
	// Enable debug logging.
	Debug bool `mapstructure:"debug"`
	// Path to a guest contract manifest; empty uses the built-in default.
	ContractPath string `mapstructure:"contract_path"`
}

// Load reads configuration from an optional file, applying defaults for
// anything unset. An empty path yields pure defaults.
func Load(configPath string) (*BridgeConfig, error) {
	v := viper.New()

	v.SetDefault("max_dictionary_edit_distance", 2)
	v.SetDefault("count_threshold", 2)
	v.SetDefault("chunk_size", 32*1024)
	v.SetDefault("memory_pages", 256) // 16MB
	v.SetDefault("debug", false)
	v.SetDefault("contract_path", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg BridgeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
