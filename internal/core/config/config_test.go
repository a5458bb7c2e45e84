package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsApplied(t *testing.T) {
	p := writeYAML(t, "jwt:\n  secret: s3cret\n")

	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", c.JWT.Secret)
	assert.Equal(t, "HS256", c.JWT.Algorithm)
	assert.Equal(t, 30, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, 1440, c.JWT.ConfirmTokenTTLMin)
	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, int64(16), c.Tasks.MaxInFlight)
	assert.False(t, c.Redis.Enabled)
	assert.Empty(t, c.App.PublicURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeYAML(t, "jwt:\n  secret: from-file\ndb:\n  driver: mysql\n")
	t.Setenv("APP_JWT_SECRET", "from-env")
	t.Setenv("APP_JWT_ACCESSTOKENTTLMIN", "5")
	t.Setenv("APP_GENERATOR_APIKEY", "deepai-key")
	t.Setenv("APP_APP_PUBLICURL", "https://api.example.com")

	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "from-env", c.JWT.Secret)
	assert.Equal(t, 5, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, "deepai-key", c.Generator.APIKey)
	assert.Equal(t, "https://api.example.com", c.App.PublicURL)
	assert.Equal(t, "mysql", c.DB.Driver)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"missing secret": "jwt:\n  algorithm: HS256\n",
		"bad algorithm":  "jwt:\n  secret: x\n  algorithm: RS256\n",
		"zero ttl":       "jwt:\n  secret: x\n  accessTokenTTLMin: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
