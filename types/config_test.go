package types

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		Project: ProjectConfig{RootDir: ".taskflow", DataDir: "data"},
		Data:    DataConfig{Backend: "file", Format: "json", File: "taskflow.db"},
		Auth:    AuthConfig{Domain: "taskflow.com", SessionFile: "session.json"},
		Seed: []SeedAccount{
			{Name: "Bryan Soph", Handle: "bryansoph", Role: "manager"},
		},
	}
}

func TestAppConfigValidation(t *testing.T) {
	v := validator.New()

	require.NoError(t, v.Struct(validConfig()))

	badBackend := validConfig()
	badBackend.Data.Backend = "redis"
	assert.Error(t, v.Struct(badBackend), "unknown backend must fail")

	badFormat := validConfig()
	badFormat.Data.Format = "xml"
	assert.Error(t, v.Struct(badFormat), "unknown format must fail")

	badDomain := validConfig()
	badDomain.Auth.Domain = "not a domain"
	assert.Error(t, v.Struct(badDomain), "malformed domain must fail")

	badRole := validConfig()
	badRole.Seed[0].Role = "admin"
	assert.Error(t, v.Struct(badRole), "unknown seed role must fail")

	// A seed without a secret is valid config; the secret arrives via
	// environment or is simply never seeded.
	noSecret := validConfig()
	noSecret.Seed[0].Secret = ""
	assert.NoError(t, v.Struct(noSecret))
}

func TestErrorCodes(t *testing.T) {
	err := NewNotFound("task not found", map[string]any{"id": "x"})
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeUnauthorized))
	assert.False(t, HasCode(nil, CodeNotFound))

	wrapped := NewStoreError("write failed", err)
	assert.True(t, HasCode(wrapped, CodeTransientStore))
	assert.ErrorContains(t, wrapped, "write failed")
}
