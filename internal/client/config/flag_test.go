package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("overrides from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-a", "http://paste.example:9999", "-t", "30"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, "http://paste.example:9999", cfg.ServerEndpointAddr)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	})

	t.Run("keeps defaults without flags", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerEndpointAddr)
		assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	})
}
