// Package chunker splits projected documents into overlapping
// fixed-size segments for embedding.
package chunker

import (
	"fmt"
	"strings"

	"github.com/cribconcierge/concierge-go/internal/config"
	"github.com/cribconcierge/concierge-go/internal/projector"
)

// Chunk is a bounded-length slice of a document's text carrying a
// back-reference to its source.
type Chunk struct {
	Text     string
	Position int
	Source   projector.Metadata
}

// Config defines chunking parameters. Size must be strictly greater
// than Overlap; Separator marks preferred split boundaries.
type Config struct {
	Size      int
	Overlap   int
	Separator string
}

// DefaultConfig matches the original splitter: 1000-char chunks with
// 100-char overlap, preferring line breaks.
func DefaultConfig() Config {
	return Config{Size: 1000, Overlap: 100, Separator: "\n"}
}

// Validate reports ErrInvalidConfiguration for unusable parameters.
func (c Config) Validate() error {
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap %d must not be negative", config.ErrInvalidConfiguration, c.Overlap)
	}
	if c.Size <= c.Overlap {
		return fmt.Errorf("%w: size %d must be greater than overlap %d",
			config.ErrInvalidConfiguration, c.Size, c.Overlap)
	}
	return nil
}

// Split cuts a document into ordered chunks. Splitting is deterministic
// and length-based: pieces are cut at the separator where possible, and
// a piece longer than Size falls back to hard cuts with Overlap carried
// between windows. A document no longer than Size yields one chunk.
func Split(doc projector.Document, cfg Config) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	meta := doc.Metadata()
	text := doc.Text

	if len(text) <= cfg.Size {
		return []Chunk{{Text: text, Position: 0, Source: meta}}, nil
	}

	var pieces []string
	if cfg.Separator != "" {
		pieces = splitKeepingOrder(text, cfg.Separator)
	} else {
		pieces = []string{text}
	}

	var texts []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		texts = append(texts, current.String())
		current.Reset()
	}

	for _, piece := range pieces {
		// Oversized piece: hard-cut into overlapping windows.
		if len(piece) > cfg.Size {
			flush()
			texts = append(texts, hardCut(piece, cfg.Size, cfg.Overlap)...)
			continue
		}

		sep := 0
		if current.Len() > 0 {
			sep = len(cfg.Separator)
		}
		if current.Len()+sep+len(piece) > cfg.Size {
			prev := current.String()
			flush()
			// Carry the overlap tail of the previous chunk forward,
			// unless doing so would overflow the new chunk.
			if cfg.Overlap > 0 && len(prev) > cfg.Overlap {
				tail := prev[len(prev)-cfg.Overlap:]
				if len(tail)+len(cfg.Separator)+len(piece) <= cfg.Size {
					current.WriteString(tail)
				}
			}
		}
		if current.Len() > 0 {
			current.WriteString(cfg.Separator)
		}
		current.WriteString(piece)
	}
	flush()

	chunks := make([]Chunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, Chunk{Text: t, Position: i, Source: meta})
	}
	return chunks, nil
}

// SplitAll chunks every document in order, concatenating the results.
// Positions restart per document.
func SplitAll(docs []projector.Document, cfg Config) ([]Chunk, error) {
	var all []Chunk
	for _, doc := range docs {
		chunks, err := Split(doc, cfg)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// hardCut slices text into windows of at most size with the configured
// overlap between consecutive windows. For a text of length L > size
// this yields ceil((L-overlap)/(size-overlap)) windows.
func hardCut(text string, size, overlap int) []string {
	step := size - overlap
	var out []string
	for start := 0; ; start += step {
		end := start + size
		if end >= len(text) {
			out = append(out, text[start:])
			return out
		}
		out = append(out, text[start:end])
	}
}

// splitKeepingOrder splits on the separator, dropping empty pieces but
// preserving order. The separator itself is re-inserted on assembly.
func splitKeepingOrder(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
