// Package file provides file-based configuration adapters.
//
// Adapters:
//   - Load: settings from .env, a TOML or YAML file and environment overrides
//   - PromptStore: user-editable prompt templates
package file
