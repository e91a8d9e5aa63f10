package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvGroqAPIKey, EnvOpenAIAPIKey, EnvAnthropicAPIKey, EnvModelName, EnvCatalogPath,
		EnvIndexDir, EnvLLMProvider, EnvLLMBaseURL, EnvLogLevel,
	} {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	clearEnv(t)

	s, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), s)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
[catalog]
path = "data/anime_updated.csv"

[index]
dir = "/tmp/anime_index"

[llm]
provider = "ollama"
model = "llama3.2"
timeout = "15s"
breaker_cooldown = "1m"

[retrieval]
top_k = 4
no_match_policy = "fail"
min_score = 0.2
`)

	s, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "data/anime_updated.csv", s.Catalog.Path)
	assert.Equal(t, "/tmp/anime_index", s.Index.Dir)
	assert.Equal(t, domain.AIProviderOllama, s.LLM.Provider)
	assert.Equal(t, 15*time.Second, s.LLM.Timeout)
	assert.Equal(t, time.Minute, s.LLM.BreakerCooldown)
	assert.Equal(t, 4, s.Retrieval.TopK)
	assert.Equal(t, domain.NoMatchFail, s.Retrieval.NoMatchPolicy)
	assert.InDelta(t, 0.2, s.Retrieval.MinScore, 1e-9)

	// Untouched sections keep defaults.
	assert.Equal(t, domain.DefaultChunkSize, s.Chunker.Size)
	assert.Equal(t, domain.DefaultTitleColumn, s.Catalog.TitleColumn)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
catalog:
  path: anime.csv
  genre_column: Genre
chunker:
  size: 300
  overlap: 30
log:
  format: json
`)

	s, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "anime.csv", s.Catalog.Path)
	assert.Equal(t, "Genre", s.Catalog.GenreColumn)
	assert.Equal(t, 300, s.Chunker.Size)
	assert.Equal(t, 30, s.Chunker.Overlap)
	assert.Equal(t, "json", s.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGroqAPIKey, "gsk-env")
	t.Setenv(EnvModelName, "llama-3.3-70b-versatile")
	t.Setenv(EnvCatalogPath, "env.csv")
	t.Setenv(EnvIndexDir, "env_index")
	t.Setenv(EnvLogLevel, "DEBUG")

	path := writeFile(t, "config.toml", "[catalog]\npath = \"file.csv\"\n")

	s, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "gsk-env", s.LLM.APIKey)
	assert.Equal(t, "llama-3.3-70b-versatile", s.LLM.Model)
	assert.Equal(t, "env.csv", s.Catalog.Path)
	assert.Equal(t, "env_index", s.Index.Dir)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoad_ProviderSelectsKeyVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLLMProvider, "anthropic")
	t.Setenv(EnvGroqAPIKey, "gsk-wrong")
	t.Setenv(EnvAnthropicAPIKey, "sk-ant")

	s, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, s.LLM.Provider)
	assert.Equal(t, "sk-ant", s.LLM.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errText string
	}{
		{"bad toml", "c.toml", "[catalog\npath=", "parse toml"},
		{"bad yaml", "c.yaml", "catalog: [", "parse yaml"},
		{"bad duration", "c.toml", "[llm]\ntimeout = \"soon\"", "llm.timeout"},
		{"tag violation", "c.toml", "[retrieval]\ntop_k = 0", "TopK"},
		{"min score out of range", "c.toml", "[retrieval]\nmin_score = 1.5", "MinScore"},
		{"bad log level", "c.toml", "[log]\nlevel = \"loud\"", "Level"},
		{"overlap too large", "c.toml", "[chunker]\nsize = 10\noverlap = 10", "overlap"},
		{"unknown provider", "c.toml", "[llm]\nprovider = \"mistral\"", "mistral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeFile(t, tt.file, tt.content))

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfig)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
