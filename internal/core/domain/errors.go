package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by a component carries exactly one of
// these so callers can branch with errors.Is without parsing messages.
var (
	// ErrConfig indicates missing or invalid configuration,
	// for example an unset or absent catalog path.
	ErrConfig = errors.New("configuration error")

	// ErrDataLoad indicates the catalog could not be read or held no records.
	ErrDataLoad = errors.New("catalog load failed")

	// ErrEmbedding indicates text could not be embedded.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexBuild indicates the vector index could not be written.
	ErrIndexBuild = errors.New("index build failed")

	// ErrIndexLoad indicates a persisted index is missing, corrupt or was
	// built with a different embedding model.
	ErrIndexLoad = errors.New("index load failed")

	// ErrRetrieval indicates a similarity search yielded no usable results.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the generation model failed or returned nothing.
	ErrGeneration = errors.New("generation failed")

	// ErrValidation indicates a caller supplied an unusable argument.
	ErrValidation = errors.New("validation failed")

	// ErrPipelineInit wraps any failure while bringing the pipeline up.
	ErrPipelineInit = errors.New("pipeline initialisation failed")

	// ErrPipelineRuntime wraps any failure while serving a query.
	ErrPipelineRuntime = errors.New("pipeline runtime failure")
)

// Infrastructure errors shared by adapters.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedType indicates an unknown provider or file format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingMismatch indicates an index and an embedder disagree on
	// model identity or dimensionality.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrRateLimited indicates a remote API refused the request for rate reasons.
	ErrRateLimited = errors.New("rate limited")
)

// Error is a kind-tagged failure that keeps the underlying cause.
// Both Kind and Err are reachable through errors.Is and errors.As.
type Error struct {
	// Kind is one of the Err* kind sentinels above.
	Kind error

	// Op names the operation that failed, e.g. "index.load".
	Op string

	// Err is the underlying cause. May be nil.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	default:
		return fmt.Sprint(e.Kind)
	}
}

// Unwrap exposes the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind and op. A nil err yields a bare kind error.
func Wrap(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a kind-tagged error from a format string.
func Errorf(kind error, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// componentKinds lists the kinds a component may report, excluding the
// pipeline envelopes.
var componentKinds = []error{
	ErrGeneration,
	ErrRetrieval,
	ErrIndexLoad,
	ErrIndexBuild,
	ErrEmbedding,
	ErrDataLoad,
	ErrConfig,
	ErrValidation,
}

// KindOf returns the component kind found in err's chain, looking through
// the pipeline envelopes. It returns nil for untagged errors.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range componentKinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Explain turns err into a message and a hint that are safe to show to an
// end user. The cause itself is never included; log it separately.
func Explain(err error) (message, hint string) {
	switch KindOf(err) {
	case ErrValidation:
		return "That query can't be used.",
			"Describe what you'd like to watch in a few words, e.g. \"mecha action series\"."
	case ErrConfig:
		return "The recommender is not configured correctly.",
			"Check the catalog path (PROCESSED_CSV_PATH) and the model API key (GROQ_API_KEY)."
	case ErrDataLoad:
		return "The anime catalog could not be read.",
			"Make sure the catalog CSV exists, is UTF-8 and has a header row with title and genre columns."
	case ErrIndexBuild, ErrIndexLoad:
		return "The search index is unavailable.",
			"Rebuild it with 'animerec index build --force'."
	case ErrEmbedding:
		return "The text could not be embedded.",
			"Try again. If it keeps failing, check that the embedding service is running."
	case ErrRetrieval:
		return "No matching anime were found.",
			"Try a broader description such as a genre, mood or setting."
	case ErrGeneration:
		switch {
		case errors.Is(err, ErrRateLimited):
			return "The recommendation model is busy.", "Wait a moment and try again."
		case errors.Is(err, ErrLLMUnavailable):
			return "The recommendation model is temporarily unavailable.",
				"Requests are paused after repeated failures. Try again shortly."
		}
		return "The recommendation model did not respond.",
			"Check your API key and network connection, then try again."
	default:
		return "Something went wrong.", "Run again with --verbose for details."
	}
}
