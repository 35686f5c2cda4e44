package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		_, err := New("no-such-provider", DefaultConfig())
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})

	t.Run("register and construct", func(t *testing.T) {
		called := false
		Register("registry-test", func(cfg *Config) (Provider, error) {
			called = true
			return nil, nil
		})

		_, err := New("registry-test", DefaultConfig())
		require.NoError(t, err)
		assert.True(t, called)
		assert.Contains(t, Names(), "registry-test")
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		Register("registry-dup", func(cfg *Config) (Provider, error) { return nil, nil })
		assert.Panics(t, func() {
			Register("registry-dup", func(cfg *Config) (Provider, error) { return nil, nil })
		})
	})
}
