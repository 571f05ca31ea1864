package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edugen/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "localhost:8080", cfg.WeaviateHost)
	assert.Equal(t, 200, cfg.MaxChunkTokens)
	assert.Equal(t, 50, cfg.ChunkOverlapTokens)
	assert.Equal(t, 5, cfg.RetrievalTopK)
	assert.Equal(t, 5, cfg.CandidateMultiplier)
	assert.Equal(t, 3, cfg.TopicFilterMin)
	assert.Equal(t, 8081, cfg.ServerPort)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiLLMModel)
	assert.True(t, cfg.EnableIngestWorker)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("RETRIEVAL_TOP_K", "10")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RetrievalTopK)
	assert.Equal(t, "db.internal", cfg.DBHost)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"valid", func(c *config.Config) {}, false},
		{"missing gemini key", func(c *config.Config) { c.GeminiAPIKey = "" }, true},
		{"missing db host", func(c *config.Config) { c.DBHost = "" }, true},
		{"missing db name", func(c *config.Config) { c.DBName = "" }, true},
		{"overlap exceeds window", func(c *config.Config) { c.ChunkOverlapTokens = 300 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				DBHost:             "postgres",
				DBUser:             "edugen",
				DBName:             "edugen",
				GeminiAPIKey:       "key",
				MaxChunkTokens:     200,
				ChunkOverlapTokens: 50,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrMissingRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
