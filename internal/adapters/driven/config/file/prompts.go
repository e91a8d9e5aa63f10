package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/animerec/internal/core/ports/driven"
	"github.com/custodia-labs/animerec/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk, falling
// back to embedded defaults.
//
// Files are only created on first Load, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts maps each known prompt to its embedded default.
var defaultPrompts = map[string]string{
	driven.PromptRecommendSystem: driven.DefaultRecommendSystemPrompt,
	driven.PromptRecommend:       driven.DefaultRecommendPrompt,
}

// requiredPlaceholders lists placeholders a customised template must keep.
var requiredPlaceholders = map[string][]string{
	driven.PromptRecommend: {"{{context}}", "{{question}}"},
}

// DefaultPrompt returns the embedded default for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.animerec/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".animerec", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name. A user file that is
// missing, unreadable or lacks a required placeholder yields the default.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return def, nil
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		prompt = def
	case err != nil:
		logger.Warn("prompt %s: %v, using default", name, err)
		prompt = def
	default:
		if missing := missingPlaceholders(name, prompt); len(missing) > 0 {
			logger.Warn("prompt %s is missing %s, using default", name, strings.Join(missing, ", "))
			prompt = def
		}
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory, default files and a README.
// Existing files are never overwritten.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Debug("prompt store disabled: %v", s.initErr)
		return
	}

	files := map[string]string{"README.md": readme}
	for name, content := range defaultPrompts {
		files[name+".txt"] = content + "\n"
	}

	for file, content := range files {
		path := filepath.Join(s.promptDir, file)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			s.initErr = fmt.Errorf("create %s: %w", file, err)
			logger.Debug("prompt store disabled: %v", s.initErr)
			return
		}
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func missingPlaceholders(name, prompt string) []string {
	var missing []string
	for _, p := range requiredPlaceholders[name] {
		if !strings.Contains(prompt, p) {
			missing = append(missing, p)
		}
	}
	return missing
}

const readme = `# animerec prompts

These files control how recommendations are written.

- recommend_system.txt: instruction sent to the model as the system message
- recommend.txt: request template combining retrieved anime and the query

recommend.txt must keep both {{context}} and {{question}}. A template
missing either falls back to the built-in default.

Changes take effect on the next command or after restarting the server.
`
