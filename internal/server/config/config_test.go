package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, StoragePostgres, c.Storage)
	assert.Equal(t, 15*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, 5*time.Minute, c.OTPTTL)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, "info", c.LogLevel)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown storage", func(c *Config) { c.Storage = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.DatabaseDSN = "" }},
		{"empty secret", func(c *Config) { c.AccessTokenSecret = "" }},
		{"same secrets", func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret }},
		{"zero otp ttl", func(c *Config) { c.OTPTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := defaults()
	c.Storage = StorageMemory
	c.DatabaseDSN = ""
	assert.NoError(t, c.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	c, err := load(nil)
	require.NoError(t, err)

	if diff := cmp.Diff(defaults(), c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("SMTP_HOST", "smtp.env")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeFile(t, "cfg.json", `{
		"smtp_host": "smtp.file",
		"otp_ttl": "10m",
		"refresh_token_ttl": 3600000000000
	}`)

	c, err := load([]string{"-c", path, "-l", "debug", "-unknown", "x"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.HTTPAddr, "env overrides default")
	assert.Equal(t, "smtp.file", c.SMTPHost, "file overrides env")
	assert.Equal(t, 10*time.Minute, c.OTPTTL)
	assert.Equal(t, time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, "debug", c.LogLevel, "flag overrides env")
}

func TestParseFile_YAML(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "storage: memory\naccess_token_ttl: 1m\ngoogle_client_id: gid\n")

	c := defaults()
	require.NoError(t, parseFile(c, []string{"-config=" + path}))

	assert.Equal(t, StorageMemory, c.Storage)
	assert.Equal(t, time.Minute, c.AccessTokenTTL)
	assert.Equal(t, "gid", c.GoogleClientID)
	assert.Equal(t, ":8080", c.HTTPAddr, "missing keys keep their value")
}

func TestParseFile_Errors(t *testing.T) {
	c := defaults()
	assert.Error(t, parseFile(c, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))

	bad := writeFile(t, "bad.json", `{"otp_ttl": "soon"}`)
	assert.Error(t, parseFile(c, []string{"-c", bad}))
}

func TestParseEnv_DotenvFile(t *testing.T) {
	path := writeFile(t, "test.env", "API_KEY=from-dotenv\nBCRYPT_COST=4\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("API_KEY")
		_ = os.Unsetenv("BCRYPT_COST")
	})

	c := defaults()
	require.NoError(t, parseEnv(c, []string{"-env", path}))

	assert.Equal(t, "from-dotenv", c.APIKey)
	assert.Equal(t, 4, c.BcryptCost)
}

func TestParseEnv_MissingNamedFile(t *testing.T) {
	c := defaults()
	assert.Error(t, parseEnv(c, []string{"-env", filepath.Join(t.TempDir(), "nope.env")}))
}

func TestParseFlags(t *testing.T) {
	c := defaults()
	err := parseFlags(c, []string{
		"-a", "127.0.0.1:9090", "-g", ":6000", "-s", "memory", "-d", "db",
		"-r", "localhost:6379", "-k", "key", "-t", "1m", "-rt", "3h", "-l", "error",
	})
	require.NoError(t, err)

	want := defaults()
	want.HTTPAddr = "127.0.0.1:9090"
	want.GRPCAddr = ":6000"
	want.Storage = StorageMemory
	want.DatabaseDSN = "db"
	want.RedisAddr = "localhost:6379"
	want.APIKey = "key"
	want.AccessTokenTTL = time.Minute
	want.RefreshTokenTTL = 3 * time.Hour
	want.LogLevel = "error"

	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFlags_BadDuration(t *testing.T) {
	c := defaults()
	assert.Error(t, parseFlags(c, []string{"-t", "forever"}))
}
