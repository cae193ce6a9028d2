package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PORT", "9090")

	require.Equal(t, "9090", getEnv("PORT", "8080"))
	require.Equal(t, "8080", getEnv("UNSET_PORT", "8080"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("IDLE_THRESHOLD", "120")

	require.Equal(t, 120, getEnvInt("IDLE_THRESHOLD", 300))
	require.Equal(t, 300, getEnvInt("UNSET_THRESHOLD", 300))

	t.Setenv("IDLE_THRESHOLD", "not a number")
	require.Equal(t, 300, getEnvInt("IDLE_THRESHOLD", 300))
}

func TestSplitCSV(t *testing.T) {
	require.Nil(t, splitCSV(""))
	require.Equal(t, []string{"http://a"}, splitCSV("http://a"))
	require.Equal(t, []string{"http://a", "http://b"}, splitCSV("http://a, http://b,"))
}
