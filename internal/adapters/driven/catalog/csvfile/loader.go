// Package csvfile loads the anime catalog from a CSV file.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
	"github.com/custodia-labs/animerec/internal/logger"
	"github.com/custodia-labs/animerec/internal/normalisers/synopsis"
)

// Ensure Loader implements the interface.
var _ driven.CatalogLoader = (*Loader)(nil)

const (
	op = "catalog.load"

	// titlePrefix starts the synthesised header of multi-column rows and is
	// what the default chunk separator looks for.
	titlePrefix = "Title: "
	genrePrefix = "Genre: "
)

// Loader reads catalog records from CSV. The header row names the columns;
// the title and genre columns become metadata and the rest becomes text.
type Loader struct {
	titleColumn string
	genreColumn string
}

// Option configures the loader.
type Option func(*Loader)

// WithTitleColumn sets the header name of the title column.
func WithTitleColumn(name string) Option {
	return func(l *Loader) {
		if name != "" {
			l.titleColumn = name
		}
	}
}

// WithGenreColumn sets the header name of the genre column.
func WithGenreColumn(name string) Option {
	return func(l *Loader) {
		if name != "" {
			l.genreColumn = name
		}
	}
}

// NewLoader creates a CSV catalog loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		titleColumn: domain.DefaultTitleColumn,
		genreColumn: domain.DefaultGenreColumn,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every data row of the file at path.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.CatalogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.Wrap(domain.ErrDataLoad, op, err)
	}
	defer f.Close()

	records, err := l.read(ctx, path, f)
	if err != nil {
		return nil, domain.Wrap(domain.ErrDataLoad, op, err)
	}
	if len(records) == 0 {
		return nil, domain.Errorf(domain.ErrDataLoad, op, "%s: no records", path)
	}

	logger.Debug("Loaded %d catalog records from %s", len(records), path)
	return records, nil
}

func (l *Loader) read(ctx context.Context, path string, r io.Reader) ([]domain.CatalogRecord, error) {
	br := bufio.NewReader(r)
	skipBOM(br)

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	titleIdx := columnIndex(header, l.titleColumn)
	if titleIdx < 0 {
		return nil, fmt.Errorf("%s: missing title column %q", path, l.titleColumn)
	}
	genreIdx := columnIndex(header, l.genreColumn)
	if genreIdx < 0 {
		logger.Warn("Catalog %s has no %q column; genres will be empty", path, l.genreColumn)
	}

	var records []domain.CatalogRecord
	for row := 1; ; row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		records = append(records, l.record(path, row, header, fields, titleIdx, genreIdx))
	}
	return records, nil
}

func (l *Loader) record(path string, row int, header, fields []string, titleIdx, genreIdx int) domain.CatalogRecord {
	field := func(i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rec := domain.CatalogRecord{
		Row:      row,
		Source:   path,
		Title:    field(titleIdx),
		Metadata: map[string]string{header[titleIdx]: field(titleIdx)},
	}
	if genreIdx >= 0 {
		rec.Genres = splitGenres(field(genreIdx))
		rec.Metadata[header[genreIdx]] = field(genreIdx)
	}

	// Free-text columns are cleaned of markup and source credits.
	texts := make(map[int]string, len(header))
	var content []int
	for i := range header {
		if i == titleIdx || i == genreIdx {
			continue
		}
		if t := synopsis.Clean(field(i)); t != "" {
			texts[i] = t
			content = append(content, i)
		}
	}

	if len(content) == 1 && strings.HasPrefix(texts[content[0]], titlePrefix) {
		rec.Text = texts[content[0]]
		return rec
	}

	var b strings.Builder
	b.WriteString(titlePrefix + rec.Title)
	if len(rec.Genres) > 0 {
		b.WriteString("\n" + genrePrefix + strings.Join(rec.Genres, ", "))
	}
	for _, i := range content {
		if len(content) == 1 {
			b.WriteString("\n" + texts[i])
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", header[i], texts[i])
	}
	rec.Text = b.String()
	return rec
}

// columnIndex finds name in header, ignoring case.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}

func skipBOM(br *bufio.Reader) {
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
}
