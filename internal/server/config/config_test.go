package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.NotEmpty(t, c.DatabaseDSN)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, "pastes", c.S3Bucket)
}
