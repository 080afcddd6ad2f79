package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServiceConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")

		cfg, err := LoadServiceConfig("report-service")
		require.NoError(t, err)

		assert.Equal(t, DefaultHTTPPort, cfg.HTTPPort)
		assert.Equal(t, "school", cfg.MongoDB.Database)
		assert.Equal(t, 8, cfg.Report.Concurrency)
		assert.Equal(t, 5*time.Second, cfg.Report.FetchTimeout)
		assert.Equal(t, 5.0, cfg.Report.DiscrepancyTolerance)
		assert.Equal(t, []string{"GET", "OPTIONS"}, cfg.CORS.AllowedMethods)
		assert.True(t, IsDevelopment(cfg))
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("MONGO_DB_NAME", "records")
		t.Setenv("REPORT_CONCURRENCY", "16")
		t.Setenv("REPORT_FETCH_TIMEOUT", "750ms")
		t.Setenv("REPORT_DISCREPANCY_TOLERANCE", "2.5")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
		t.Setenv("ENVIRONMENT", "production")

		cfg, err := LoadServiceConfig("report-service")
		require.NoError(t, err)

		assert.Equal(t, "records", cfg.MongoDB.Database)
		assert.Equal(t, 16, cfg.Report.Concurrency)
		assert.Equal(t, 750*time.Millisecond, cfg.Report.FetchTimeout)
		assert.Equal(t, 2.5, cfg.Report.DiscrepancyTolerance)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
		assert.False(t, IsDevelopment(cfg))
	})

	t.Run("Missing Mongo URI", func(t *testing.T) {
		t.Setenv("MONGO_URI", "")

		_, err := LoadServiceConfig("report-service")
		assert.Error(t, err)
	})

	t.Run("Invalid Values", func(t *testing.T) {
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("REPORT_CONCURRENCY", "0")

		_, err := LoadServiceConfig("report-service")
		assert.ErrorContains(t, err, "invalid configuration")

		t.Setenv("REPORT_CONCURRENCY", "4")
		t.Setenv("ENVIRONMENT", "qa")
		_, err = LoadServiceConfig("report-service")
		assert.ErrorContains(t, err, "invalid configuration")
	})
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("INT_OK", "42")
	t.Setenv("INT_BAD", "forty")
	t.Setenv("BOOL_OK", "false")
	t.Setenv("DUR_OK", "3s")

	assert.Equal(t, 42, GetIntEnv("INT_OK", 1))
	assert.Equal(t, 1, GetIntEnv("INT_BAD", 1))
	assert.Equal(t, 1, GetIntEnv("INT_UNSET", 1))
	assert.False(t, GetBoolEnv("BOOL_OK", true))
	assert.Equal(t, 3*time.Second, GetDurationEnv("DUR_OK", time.Second))
	assert.Equal(t, "x", GetEnv("STR_UNSET", "x"))
}

func TestIDFilter(t *testing.T) {
	assert.Equal(t, "s1", IDFilter("_id", "s1")["_id"])

	hex := "652f1c5e8a1b2c3d4e5f6a7b"
	f := IDFilter("_id", hex)
	in, ok := f["_id"]
	require.True(t, ok)
	assert.Contains(t, in, "$in")
}
