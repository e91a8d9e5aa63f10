package domain

// CatalogRecord is one data row of the anime catalog.
// Records are immutable once loaded and are consumed by the chunker.
type CatalogRecord struct {
	// Row is the 1-based data row number, header excluded.
	Row int

	// Source is the path of the catalog file the row came from.
	Source string

	// Title is the value of the designated title column.
	Title string

	// Genres is the designated genre column split on commas.
	Genres []string

	// Text is the free-text content built from the remaining columns.
	Text string

	// Metadata holds the designated columns verbatim, keyed by header name.
	Metadata map[string]string
}

// Chunk is a bounded segment of a record's text and the unit of
// embedding and retrieval. It always carries its record's title.
type Chunk struct {
	// ID is a deterministic identifier derived from source, row and position.
	ID string

	// Title is the originating record's title.
	Title string

	// Genres is the originating record's genre list.
	Genres []string

	// Row is the originating record's data row number.
	Row int

	// Source is the originating catalog path.
	Source string

	// Content is the chunk text.
	Content string

	// Position is the ordinal position within the record.
	Position int
}

// IndexEntry is a chunk together with its embedding as persisted in the
// vector index. Seq is the insertion order and breaks score ties.
type IndexEntry struct {
	Seq       int64
	Chunk     Chunk
	Embedding []float32
}
