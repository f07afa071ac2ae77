package lifecycle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentplatform/chromactl/pkg/config"
)

func envValue(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix), true
		}
	}
	return "", false
}

func TestEnviron_SetsAllServerVariables(t *testing.T) {
	srv := config.ServerConfig{
		Host:        "localhost",
		HTTPPort:    8000,
		GRPCPort:    8001,
		CORSOrigins: []string{"*"},
		Telemetry:   false,
	}

	env, err := Environ(srv)
	require.NoError(t, err)

	want := map[string]string{
		EnvCORSAllowOrigins:     `["*"]`,
		EnvServerHost:           "localhost",
		EnvServerHTTPPort:       "8000",
		EnvServerGRPCPort:       "8001",
		EnvAuthnCredentialsFile: "",
		EnvAuthnProvider:        "",
		EnvAnonymizedTelemetry:  "false",
	}
	for key, wantVal := range want {
		got, ok := envValue(env, key)
		require.True(t, ok, "missing %s", key)
		assert.Equal(t, wantVal, got, key)
	}
}

func TestEnviron_CORSOriginList(t *testing.T) {
	srv := config.ServerConfig{
		Host:        "localhost",
		HTTPPort:    8000,
		GRPCPort:    8001,
		CORSOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
	}

	env, err := Environ(srv)
	require.NoError(t, err)

	got, ok := envValue(env, EnvCORSAllowOrigins)
	require.True(t, ok)
	assert.Equal(t, `["http://localhost:3000","http://127.0.0.1:3000"]`, got)
}

func TestEnviron_InheritsParentEnvironment(t *testing.T) {
	t.Setenv("CHROMACTL_TEST_MARKER", "inherited")

	env, err := Environ(config.ServerConfig{Host: "localhost", HTTPPort: 8000, CORSOrigins: []string{"*"}})
	require.NoError(t, err)

	got, ok := envValue(env, "CHROMACTL_TEST_MARKER")
	require.True(t, ok)
	assert.Equal(t, "inherited", got)
}
