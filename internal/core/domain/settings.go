package domain

import (
	"fmt"
	"runtime"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a generation service provider.
type AIProvider string

// Available generation providers.
const (
	// AIProviderGroq is Groq's hosted, OpenAI-compatible API.
	AIProviderGroq AIProvider = "groq"

	// AIProviderOpenAI is the OpenAI cloud API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGroq, AIProviderOpenAI, AIProviderOllama, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGroq || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingProvider identifies a local embedding backend.
type EmbeddingProvider string

// Available embedding providers. Both run without a hosted endpoint.
const (
	// EmbeddingProviderHashing is the built-in feature-hashing embedder.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"

	// EmbeddingProviderOllama uses a local Ollama embedding model.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"
)

// IsValid returns true if the embedding provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	return p == EmbeddingProviderHashing || p == EmbeddingProviderOllama
}

// NoMatchPolicy decides what a recommendation does when retrieval is empty.
type NoMatchPolicy string

// Available no-match policies.
const (
	// NoMatchDegrade answers with a canned "no strong matches" message.
	NoMatchDegrade NoMatchPolicy = "degrade"

	// NoMatchFail returns an ErrRetrieval error.
	NoMatchFail NoMatchPolicy = "fail"
)

// IsValid returns true if the policy is recognised.
func (p NoMatchPolicy) IsValid() bool {
	return p == NoMatchDegrade || p == NoMatchFail
}

// CatalogSettings locates the catalog and names its metadata columns.
type CatalogSettings struct {
	Path        string
	TitleColumn string `validate:"required"`
	GenreColumn string `validate:"required"`
}

// IndexSettings locates the persisted vector index.
type IndexSettings struct {
	// Dir is the index directory. Non-empty means already built.
	Dir string `validate:"required"`

	// Workers is the embedding worker pool size used during build.
	Workers int `validate:"gte=1,lte=256"`

	// BatchSize is how many chunks each worker embeds per call.
	BatchSize int `validate:"gte=1,lte=1024"`
}

// ChunkerSettings configures record splitting. Lengths are in runes.
type ChunkerSettings struct {
	Size      int `validate:"gte=1"`
	Overlap   int `validate:"gte=0"`
	Separator string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider   EmbeddingProvider `validate:"required"`
	Dimensions int               `validate:"gte=8,lte=8192"`

	// Model and BaseURL apply to the ollama provider.
	Model   string
	BaseURL string `validate:"omitempty,url"`
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	Provider    AIProvider `validate:"required"`
	Model       string
	BaseURL     string `validate:"omitempty,url"`
	APIKey      string
	Timeout     time.Duration
	MaxTokens   int     `validate:"gte=0"`
	Temperature float64 `validate:"gte=0,lte=2"`

	// RequestsPerMinute caps generation calls. Zero disables limiting.
	RequestsPerMinute int `validate:"gte=0"`

	// BreakerFailures is the consecutive failure count that opens the
	// circuit. Zero disables the breaker.
	BreakerFailures int `validate:"gte=0"`
	BreakerCooldown time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings tunes the recommender. MinScore is the cosine
// similarity a hit must exceed to reach the prompt.
type RetrievalSettings struct {
	TopK           int `validate:"gte=1,lte=100"`
	MinQueryLength int `validate:"gte=1"`
	NoMatchPolicy  NoMatchPolicy
	MinScore       float64 `validate:"gte=-1,lte=1"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `validate:"omitempty,oneof=debug info warn error"`
	Format string `validate:"omitempty,oneof=console json"`
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string `validate:"required"`
}

// Settings holds all application settings.
type Settings struct {
	Catalog   CatalogSettings
	Index     IndexSettings
	Chunker   ChunkerSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Log       LogSettings
	Server    ServerSettings
}

// Default values.
const (
	DefaultTitleColumn    = "Name"
	DefaultGenreColumn    = "Genres"
	DefaultIndexDir       = "anime_index"
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultSeparator      = "\nTitle: "
	DefaultDimensions     = 384
	DefaultTopK           = 6
	DefaultMinQueryLength = 3
	DefaultEmbedBatchSize = 32
)

// DefaultSettings returns settings with sensible defaults.
// The catalog path has no default and must be supplied.
func DefaultSettings() Settings {
	return Settings{
		Catalog: CatalogSettings{
			TitleColumn: DefaultTitleColumn,
			GenreColumn: DefaultGenreColumn,
		},
		Index: IndexSettings{
			Dir:       DefaultIndexDir,
			Workers:   runtime.NumCPU(),
			BatchSize: DefaultEmbedBatchSize,
		},
		Chunker: ChunkerSettings{
			Size:      DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
			Separator: DefaultSeparator,
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderHashing,
			Dimensions: DefaultDimensions,
		},
		LLM: LLMSettings{
			Provider:          AIProviderGroq,
			Timeout:           60 * time.Second,
			MaxTokens:         1024,
			Temperature:       0.3,
			RequestsPerMinute: 30,
			BreakerFailures:   5,
			BreakerCooldown:   30 * time.Second,
		},
		Retrieval: RetrievalSettings{
			TopK:           DefaultTopK,
			MinQueryLength: DefaultMinQueryLength,
			NoMatchPolicy:  NoMatchDegrade,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
	}
}

// Validate checks cross-field rules that struct tags cannot express.
func (s Settings) Validate() error {
	if s.Chunker.Overlap >= s.Chunker.Size {
		return Errorf(ErrConfig, "settings", "chunker overlap %d must be smaller than size %d",
			s.Chunker.Overlap, s.Chunker.Size)
	}
	if !s.Embedding.Provider.IsValid() {
		return Errorf(ErrConfig, "settings", "unknown embedding provider %q", s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return Errorf(ErrConfig, "settings", "unknown llm provider %q", s.LLM.Provider)
	}
	if !s.Retrieval.NoMatchPolicy.IsValid() {
		return Errorf(ErrConfig, "settings", "unknown no-match policy %q", s.Retrieval.NoMatchPolicy)
	}
	return nil
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGroq:      "llama-3.1-8b-instant",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderOllama:    "llama3.2",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// String summarises the settings without secrets.
func (s Settings) String() string {
	return fmt.Sprintf("catalog=%s index=%s embedding=%s/%d llm=%s/%s top_k=%d",
		s.Catalog.Path, s.Index.Dir, s.Embedding.Provider, s.Embedding.Dimensions,
		s.LLM.Provider, s.LLM.Model, s.Retrieval.TopK)
}
