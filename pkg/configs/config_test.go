package configs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/configs"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))

	return dir
}

func TestInitConfigDefaults(t *testing.T) {
	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := configs.GetConfig()
	assert.Equal(t, configs.DefaultPort, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.KV.Type)
	assert.Equal(t, configs.DefaultRetention, cfg.Paste.Retention)
	assert.Equal(t, configs.DefaultIDLength, cfg.Paste.IDLength)
	assert.Equal(t, configs.PasswordSchemeSHA256, cfg.Paste.PasswordScheme)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, []string{configs.LocationDefault}, cfg.Storage.Names())

	loc, ok := cfg.Storage.Location("")
	require.True(t, ok)
	assert.Equal(t, configs.DefaultS3BucketName, loc.Bucket)
}

func TestInitConfigFile(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9000
  reload_config: false
paste:
  retention: 48h
  large_proxy_threshold: 1048576
storage:
  locations:
    default:
      endpoint: s3.local:9000
      bucket: small
      max_file_size: 1024
      max_ttl: 72h
    large:
      endpoint: s3.local:9000
      upload_endpoint: upload.example.com
      bucket: big
`)

	t.Setenv("PASTEVAULT_SERVER_PORT", "9100")

	require.NoError(t, configs.InitConfig(dir))

	cfg := configs.GetConfig()
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 48*time.Hour, cfg.Paste.Retention)
	assert.Equal(t, int64(1<<20), cfg.Paste.LargeProxyThreshold)
	assert.Equal(t, configs.DefaultPendingTTL, cfg.Paste.PendingTTL)
	assert.Equal(t, []string{configs.LocationDefault, configs.LocationLarge}, cfg.Storage.Names())

	def, _ := cfg.Storage.Location(configs.LocationDefault)
	assert.Equal(t, int64(1024), def.MaxFileSize)
	assert.Equal(t, 72*time.Hour, def.MaxTTL)

	large, ok := cfg.Storage.Location(configs.LocationLarge)
	require.True(t, ok)
	assert.Equal(t, "big", large.Bucket)
	assert.Equal(t, "upload.example.com", large.UploadEndpoint)
	assert.Equal(t, "http://s3.local:9000", large.GetEndpointURL())
}

func TestInitConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown kv": `
kv:
  type: etcd
`,
		"bad scheme": `
paste:
  password_scheme: md5
`,
		"margin not below expiry": `
paste:
  presign_expiry: 5m
  presign_margin: 10m
`,
		"admin without token": `
admin:
  enabled: true
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, configs.InitConfig(writeConfig(t, body)))
		})
	}
}

func TestDBConfigDSN(t *testing.T) {
	cases := []struct {
		cfg     configs.DBConfig
		dialect string
		dsn     string
	}{
		{
			cfg:     configs.DBConfig{Type: configs.Pg, Host: "db", Port: 5432, User: "pv", Password: "pw", Database: "pastes", SSLMode: "disable"},
			dialect: "postgres",
			dsn:     "host=db port=5432 user=pv password=pw dbname=pastes sslmode=disable",
		},
		{
			cfg:     configs.DBConfig{Type: configs.MariaDB, Host: "db", Port: 3306, User: "pv", Password: "p@ss", Database: "pastes"},
			dialect: "mysql",
			dsn:     "pv:p%40ss@tcp(db:3306)/pastes?charset=utf8mb4&parseTime=true&loc=UTC",
		},
		{cfg: configs.DBConfig{Type: configs.SQLite, Database: "pastevault"}, dialect: "sqlite", dsn: "file:pastevault.db"},
		{cfg: configs.DBConfig{Type: configs.SQLite, Database: "/var/lib/pv.sqlite"}, dialect: "sqlite", dsn: "file:/var/lib/pv.sqlite"},
		{cfg: configs.DBConfig{Type: configs.SQLite, Database: ":memory:"}, dialect: "sqlite", dsn: "file::memory:?cache=shared"},
		{cfg: configs.DBConfig{Type: "oracle"}},
	}

	for _, tc := range cases {
		t.Run(string(tc.cfg.Type), func(t *testing.T) {
			assert.Equal(t, tc.dialect, tc.cfg.Dialect())
			assert.Equal(t, tc.dsn, tc.cfg.DSN())
		})
	}
}

func TestCircuitBreakerShouldTrip(t *testing.T) {
	cfg := configs.CircuitBreakerConfig{FailureRate: 0.5, MinRequests: 4}

	assert.False(t, cfg.ShouldTrip(0, 0))
	assert.False(t, cfg.ShouldTrip(3, 3))
	assert.False(t, cfg.ShouldTrip(4, 1))
	assert.True(t, cfg.ShouldTrip(4, 2))
	assert.Equal(t, time.Duration(0), cfg.Timeout())
}
