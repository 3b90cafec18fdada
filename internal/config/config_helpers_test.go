package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvInt(t *testing.T) {
	t.Run("returns default value when env var not set", func(t *testing.T) {
		os.Unsetenv("TEST_INT_VAR")
		result, err := getEnvInt("TEST_INT_VAR", 42)
		require.NoError(t, err)
		assert.Equal(t, 42, result)
	})

	t.Run("parses valid integer", func(t *testing.T) {
		t.Setenv("TEST_INT_VAR", "-10")
		result, err := getEnvInt("TEST_INT_VAR", 42)
		require.NoError(t, err)
		assert.Equal(t, -10, result)
	})

	t.Run("rejects invalid integer", func(t *testing.T) {
		t.Setenv("TEST_INT_VAR", "42.5")
		_, err := getEnvInt("TEST_INT_VAR", 42)
		assert.ErrorContains(t, err, "TEST_INT_VAR")
	})
}

func TestGetEnvDuration(t *testing.T) {
	t.Run("returns default value when env var not set", func(t *testing.T) {
		os.Unsetenv("TEST_DURATION_VAR")
		result, err := getEnvDuration("TEST_DURATION_VAR", 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, result)
	})

	t.Run("parses complex duration", func(t *testing.T) {
		t.Setenv("TEST_DURATION_VAR", "1h30m45s")
		result, err := getEnvDuration("TEST_DURATION_VAR", 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, time.Hour+30*time.Minute+45*time.Second, result)
	})

	t.Run("rejects plain numbers without unit", func(t *testing.T) {
		t.Setenv("TEST_DURATION_VAR", "100")
		_, err := getEnvDuration("TEST_DURATION_VAR", 5*time.Minute)
		assert.Error(t, err)
	})
}

func TestGetEnvBoolAndFloat(t *testing.T) {
	t.Setenv("TEST_BOOL_VAR", "1")
	b, err := getEnvBool("TEST_BOOL_VAR", false)
	require.NoError(t, err)
	assert.True(t, b)

	t.Setenv("TEST_FLOAT_VAR", "2.5")
	f, err := getEnvFloat("TEST_FLOAT_VAR", 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
}
