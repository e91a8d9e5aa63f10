package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

// Environment variables that override file settings.
const (
	EnvGroqAPIKey      = "GROQ_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvModelName       = "MODEL_NAME"
	EnvCatalogPath     = "PROCESSED_CSV_PATH"
	EnvIndexDir        = "ANIMEREC_INDEX_DIR"
	EnvLLMProvider     = "ANIMEREC_LLM_PROVIDER"
	EnvLLMBaseURL      = "ANIMEREC_LLM_BASE_URL"
	EnvLogLevel        = "ANIMEREC_LOG_LEVEL"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// fileSettings mirrors domain.Settings with on-disk names. Durations are
// strings so both TOML and YAML can carry "30s".
type fileSettings struct {
	Catalog struct {
		Path        string `toml:"path" yaml:"path"`
		TitleColumn string `toml:"title_column" yaml:"title_column"`
		GenreColumn string `toml:"genre_column" yaml:"genre_column"`
	} `toml:"catalog" yaml:"catalog"`

	Index struct {
		Dir       string `toml:"dir" yaml:"dir"`
		Workers   int    `toml:"workers" yaml:"workers"`
		BatchSize int    `toml:"batch_size" yaml:"batch_size"`
	} `toml:"index" yaml:"index"`

	Chunker struct {
		Size      int    `toml:"size" yaml:"size"`
		Overlap   int    `toml:"overlap" yaml:"overlap"`
		Separator string `toml:"separator" yaml:"separator"`
	} `toml:"chunker" yaml:"chunker"`

	Embedding struct {
		Provider   string `toml:"provider" yaml:"provider"`
		Dimensions int    `toml:"dimensions" yaml:"dimensions"`
		Model      string `toml:"model" yaml:"model"`
		BaseURL    string `toml:"base_url" yaml:"base_url"`
	} `toml:"embedding" yaml:"embedding"`

	LLM struct {
		Provider          string  `toml:"provider" yaml:"provider"`
		Model             string  `toml:"model" yaml:"model"`
		BaseURL           string  `toml:"base_url" yaml:"base_url"`
		APIKey            string  `toml:"api_key" yaml:"api_key"`
		Timeout           string  `toml:"timeout" yaml:"timeout"`
		MaxTokens         int     `toml:"max_tokens" yaml:"max_tokens"`
		Temperature       float64 `toml:"temperature" yaml:"temperature"`
		RequestsPerMinute int     `toml:"requests_per_minute" yaml:"requests_per_minute"`
		BreakerFailures   int     `toml:"breaker_failures" yaml:"breaker_failures"`
		BreakerCooldown   string  `toml:"breaker_cooldown" yaml:"breaker_cooldown"`
	} `toml:"llm" yaml:"llm"`

	Retrieval struct {
		TopK           int     `toml:"top_k" yaml:"top_k"`
		MinQueryLength int     `toml:"min_query_length" yaml:"min_query_length"`
		NoMatchPolicy  string  `toml:"no_match_policy" yaml:"no_match_policy"`
		MinScore       float64 `toml:"min_score" yaml:"min_score"`
	} `toml:"retrieval" yaml:"retrieval"`

	Log struct {
		Level  string `toml:"level" yaml:"level"`
		Format string `toml:"format" yaml:"format"`
	} `toml:"log" yaml:"log"`

	Server struct {
		Addr string `toml:"addr" yaml:"addr"`
	} `toml:"server" yaml:"server"`
}

// DefaultConfigPath returns ~/.animerec/config.toml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".animerec", "config.toml"), nil
}

// Load builds Settings from defaults, then .env in the working directory,
// then the settings file at path, then environment overrides.
//
// An empty path selects DefaultConfigPath and tolerates its absence.
// An explicit path must exist. The result is validated.
func Load(path string) (domain.Settings, error) {
	const op = "config.load"

	// .env is optional.
	_ = godotenv.Load()

	settings := domain.DefaultSettings()

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return settings, domain.Wrap(domain.ErrConfig, op, err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, &settings); err != nil {
			return settings, domain.Wrap(domain.ErrConfig, op, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No settings file, defaults apply.
	default:
		return settings, domain.Wrap(domain.ErrConfig, op, err)
	}

	applyEnv(&settings)

	if err := Validate(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// Validate runs struct tag validation followed by cross-field checks.
func Validate(s domain.Settings) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), tagWithParam(fe)))
			}
			return domain.Errorf(domain.ErrConfig, "config.validate", "%s", strings.Join(msgs, "; "))
		}
		return domain.Wrap(domain.ErrConfig, "config.validate", err)
	}
	return s.Validate()
}

func tagWithParam(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// decode overlays the file at path onto settings, choosing the format by
// extension. Unknown extensions are read as TOML.
func decode(path string, data []byte, settings *domain.Settings) error {
	fs := toFile(*settings)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fs); err != nil {
			return fmt.Errorf("parse yaml %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, &fs); err != nil {
			return fmt.Errorf("parse toml %s: %w", path, err)
		}
	}

	out, err := fs.toDomain()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	*settings = out
	return nil
}

// applyEnv applies environment overrides. The provider is resolved first so
// the matching API key variable is used.
func applyEnv(s *domain.Settings) {
	if v := os.Getenv(EnvLLMProvider); v != "" {
		s.LLM.Provider = domain.AIProvider(strings.ToLower(v))
	}
	if v := os.Getenv(apiKeyVar(s.LLM.Provider)); v != "" {
		s.LLM.APIKey = v
	}
	if v := os.Getenv(EnvModelName); v != "" {
		s.LLM.Model = v
	}
	if v := os.Getenv(EnvLLMBaseURL); v != "" {
		s.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvCatalogPath); v != "" {
		s.Catalog.Path = v
	}
	if v := os.Getenv(EnvIndexDir); v != "" {
		s.Index.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.Log.Level = strings.ToLower(v)
	}
}

func apiKeyVar(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return EnvOpenAIAPIKey
	case domain.AIProviderAnthropic:
		return EnvAnthropicAPIKey
	default:
		return EnvGroqAPIKey
	}
}

func toFile(s domain.Settings) fileSettings {
	var f fileSettings
	f.Catalog.Path = s.Catalog.Path
	f.Catalog.TitleColumn = s.Catalog.TitleColumn
	f.Catalog.GenreColumn = s.Catalog.GenreColumn
	f.Index.Dir = s.Index.Dir
	f.Index.Workers = s.Index.Workers
	f.Index.BatchSize = s.Index.BatchSize
	f.Chunker.Size = s.Chunker.Size
	f.Chunker.Overlap = s.Chunker.Overlap
	f.Chunker.Separator = s.Chunker.Separator
	f.Embedding.Provider = string(s.Embedding.Provider)
	f.Embedding.Dimensions = s.Embedding.Dimensions
	f.Embedding.Model = s.Embedding.Model
	f.Embedding.BaseURL = s.Embedding.BaseURL
	f.LLM.Provider = string(s.LLM.Provider)
	f.LLM.Model = s.LLM.Model
	f.LLM.BaseURL = s.LLM.BaseURL
	f.LLM.APIKey = s.LLM.APIKey
	f.LLM.Timeout = s.LLM.Timeout.String()
	f.LLM.MaxTokens = s.LLM.MaxTokens
	f.LLM.Temperature = s.LLM.Temperature
	f.LLM.RequestsPerMinute = s.LLM.RequestsPerMinute
	f.LLM.BreakerFailures = s.LLM.BreakerFailures
	f.LLM.BreakerCooldown = s.LLM.BreakerCooldown.String()
	f.Retrieval.TopK = s.Retrieval.TopK
	f.Retrieval.MinQueryLength = s.Retrieval.MinQueryLength
	f.Retrieval.NoMatchPolicy = string(s.Retrieval.NoMatchPolicy)
	f.Retrieval.MinScore = s.Retrieval.MinScore
	f.Log.Level = s.Log.Level
	f.Log.Format = s.Log.Format
	f.Server.Addr = s.Server.Addr
	return f
}

func (f fileSettings) toDomain() (domain.Settings, error) {
	timeout, err := time.ParseDuration(f.LLM.Timeout)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("llm.timeout: %w", err)
	}
	cooldown, err := time.ParseDuration(f.LLM.BreakerCooldown)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("llm.breaker_cooldown: %w", err)
	}

	return domain.Settings{
		Catalog: domain.CatalogSettings{
			Path:        f.Catalog.Path,
			TitleColumn: f.Catalog.TitleColumn,
			GenreColumn: f.Catalog.GenreColumn,
		},
		Index: domain.IndexSettings{
			Dir:       f.Index.Dir,
			Workers:   f.Index.Workers,
			BatchSize: f.Index.BatchSize,
		},
		Chunker: domain.ChunkerSettings{
			Size:      f.Chunker.Size,
			Overlap:   f.Chunker.Overlap,
			Separator: f.Chunker.Separator,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.EmbeddingProvider(f.Embedding.Provider),
			Dimensions: f.Embedding.Dimensions,
			Model:      f.Embedding.Model,
			BaseURL:    f.Embedding.BaseURL,
		},
		LLM: domain.LLMSettings{
			Provider:          domain.AIProvider(f.LLM.Provider),
			Model:             f.LLM.Model,
			BaseURL:           f.LLM.BaseURL,
			APIKey:            f.LLM.APIKey,
			Timeout:           timeout,
			MaxTokens:         f.LLM.MaxTokens,
			Temperature:       f.LLM.Temperature,
			RequestsPerMinute: f.LLM.RequestsPerMinute,
			BreakerFailures:   f.LLM.BreakerFailures,
			BreakerCooldown:   cooldown,
		},
		Retrieval: domain.RetrievalSettings{
			TopK:           f.Retrieval.TopK,
			MinQueryLength: f.Retrieval.MinQueryLength,
			NoMatchPolicy:  domain.NoMatchPolicy(f.Retrieval.NoMatchPolicy),
			MinScore:       f.Retrieval.MinScore,
		},
		Log: domain.LogSettings{
			Level:  f.Log.Level,
			Format: f.Log.Format,
		},
		Server: domain.ServerSettings{
			Addr: f.Server.Addr,
		},
	}, nil
}
