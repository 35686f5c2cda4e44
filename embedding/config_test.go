package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
		assert.Equal(t, "embeddinggemma", cfg.Model)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("options applied", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("https://api.openai.com"),
			WithAPIKey("sk-test"),
			WithModel("text-embedding-3-small"),
			WithDimension(1536),
			WithMaxBatchSize(128),
		)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://api.openai.com/v1", cfg.Host)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 1536, cfg.Dimension)
		assert.Equal(t, 128, cfg.MaxBatchSize)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds v1 suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"strips trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty host untouched", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.Host)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing model", func(t *testing.T) {
		cfg := NewConfig(WithModel(""))
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive dimension", func(t *testing.T) {
		cfg := NewConfig(WithDimension(0))
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive batch size", func(t *testing.T) {
		cfg := NewConfig(WithMaxBatchSize(0))
		assert.Error(t, cfg.Validate())
	})
}
