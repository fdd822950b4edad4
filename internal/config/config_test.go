package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes a variable for the test; t.Setenv alone cannot, it
// only overwrites.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if old, ok := os.LookupEnv(key); ok {
		os.Unsetenv(key)
		t.Cleanup(func() { os.Setenv(key, old) })
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "MONGO_URI", "MONGO_DB", "JWT_SECRET",
		"JWT_EXPIRY", "SWEEP_HOUR_UTC", "PLATE_POLICY_FILE",
		"MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_TOPIC_PREFIX",
	} {
		unsetEnv(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "registry", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 0, cfg.SweepHourUTC)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Equal(t, "vehicle-registry", cfg.MQTTClientID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SWEEP_HOUR_UTC", "3")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.SweepHourUTC)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
}

func TestLoadSweepHourRange(t *testing.T) {
	for _, hour := range []string{"-1", "24"} {
		t.Setenv("SWEEP_HOUR_UTC", hour)
		_, err := Load()
		assert.Error(t, err, "hour %s", hour)
	}
}
