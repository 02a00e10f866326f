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

	os.Args = []string{"testbin",
		"-a", ":9999",
		"-d", "postgres://flag",
		"-s", "flagsecret",
		"-t", "30",
		"-r", "120",
		"-b", "flagbucket",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "postgres://flag", cfg.DatabaseDSN)
	assert.Equal(t, "flagsecret", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 120*time.Minute, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "flagbucket", cfg.S3Bucket)
}
