package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptRecommendSystem is the system instruction for recommendations.
	// This prompt has no placeholders.
	PromptRecommendSystem = "recommend_system"

	// PromptRecommend is the recommendation request template.
	// It expects {{context}} and {{question}} placeholders.
	PromptRecommend = "recommend"
)

// Built-in prompt texts, used when no PromptStore is configured or a
// user file is unusable.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const (
	DefaultRecommendSystemPrompt = `You are an anime recommendation assistant. Recommend titles that match the user's preferences using ONLY the anime listed in the context.
Never mention a title that does not appear in the context. If nothing in the context fits, say so plainly.
For each recommendation give the title, its genres and one or two sentences on why it matches.`

	DefaultRecommendPrompt = `Context:
{{context}}

User preferences: {{question}}

Recommendations:`
)
