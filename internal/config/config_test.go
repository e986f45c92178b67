package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "TOKO BANGUNAN MAKMUR JAYA", cfg.StoreName)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_NAME=TOKO UJI\nHTTP_PORT=9090\n"), 0o600))

	// godotenv does not override variables that are already set
	t.Setenv("STORE_NAME", "")
	t.Setenv("HTTP_PORT", "")
	os.Unsetenv("STORE_NAME")
	os.Unsetenv("HTTP_PORT")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "TOKO UJI", cfg.StoreName)
	assert.Equal(t, "9090", cfg.HTTPPort)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DBDriver:   "sqlite",
		DBDSN:      ":memory:",
		HTTPPort:   "8080",
		GRPCPort:   "50051",
		StoreName:  "TOKO",
		ReportCron: "0 21 * * *",
		Timezone:   "UTC",
	}
	require.NoError(t, valid.Validate())

	badDriver := valid
	badDriver.DBDriver = "mysql"
	assert.Error(t, badDriver.Validate())

	badZone := valid
	badZone.Timezone = "Mars/Olympus"
	assert.Error(t, badZone.Validate())

	noDSN := valid
	noDSN.DBDSN = ""
	assert.Error(t, noDSN.Validate())

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
