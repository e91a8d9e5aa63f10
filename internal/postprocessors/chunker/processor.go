// Package chunker splits catalog records into bounded, overlapping chunks
// that prefer to break where a new title entry begins.
package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 50

// DefaultSeparator marks the start of a title entry.
const DefaultSeparator = "\nTitle: "

// Processor splits record text into chunks of at most chunkSize runes.
type Processor struct {
	chunkSize int
	overlap   int
	separator []rune
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparator sets the boundary marker. An empty marker disables
// boundary-aware cuts.
func WithSeparator(sep string) Option {
	return func(p *Processor) {
		p.separator = []rune(sep)
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		separator: []rune(DefaultSeparator),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split chunks every record in order.
func (p *Processor) Split(records []domain.CatalogRecord) []domain.Chunk {
	var chunks []domain.Chunk
	for i := range records {
		chunks = append(chunks, p.Process(&records[i])...)
	}
	return chunks
}

// Process splits a single record. Blank records produce no chunks.
func (p *Processor) Process(rec *domain.CatalogRecord) []domain.Chunk {
	if strings.TrimSpace(rec.Text) == "" {
		return nil
	}

	parts := p.splitText(rec.Text)
	chunks := make([]domain.Chunk, 0, len(parts))
	for position, content := range parts {
		chunks = append(chunks, domain.Chunk{
			ID:       chunkID(rec, position),
			Title:    rec.Title,
			Genres:   rec.Genres,
			Row:      rec.Row,
			Source:   rec.Source,
			Content:  content,
			Position: position,
		})
	}
	return chunks
}

// splitText walks the text in windows of chunkSize runes. Each window is cut
// just before the last separator that leaves more than overlap runes behind
// it, or at the window end when there is none. The next window starts overlap
// runes before the cut.
func (p *Processor) splitText(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n <= p.chunkSize {
		return []string{text}
	}

	parts := make([]string, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0
	for {
		end := start + p.chunkSize
		if end >= n {
			parts = append(parts, string(runes[start:]))
			return parts
		}
		if cut := p.lastBoundary(runes, start+p.overlap+1, end); cut >= 0 {
			end = cut
		}
		parts = append(parts, string(runes[start:end]))
		start = end - p.overlap
	}
}

// lastBoundary returns the largest i in [lo, hi] where the separator begins,
// or -1.
func (p *Processor) lastBoundary(runes []rune, lo, hi int) int {
	m := len(p.separator)
	if m == 0 {
		return -1
	}
	for i := hi; i >= lo; i-- {
		if i+m > len(runes) {
			continue
		}
		if equalRunes(runes[i:i+m], p.separator) {
			return i
		}
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// chunkID is stable across rebuilds of the same catalog.
func chunkID(rec *domain.CatalogRecord, position int) string {
	name := fmt.Sprintf("%s#%d/%d", rec.Source, rec.Row, position)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
