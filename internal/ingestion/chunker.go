package ingestion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/legallink/backend/internal/model/document"
)

// Default splitting parameters for Indonesian statute text.
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 400
)

// legalSeparators are tried in order; each level keeps the separator
// attached to the start of the following section so a chunk begins at a
// structural boundary (Pasal/BAB/Bagian) whenever possible.
var legalSeparators = []string{"\n\nPasal", "\n\nBAB", "\n\nBagian", "\n\n"}

var articleRe = regexp.MustCompile(`Pasal\s+(\d+[A-Za-z]?)`)

// LegalChunker splits statute text into overlapping chunks along
// article/chapter boundaries, falling back to a character window for
// unstructured runs.
type LegalChunker struct {
	chunkSize int
	overlap   int
}

// NewLegalChunker builds a chunker; non-positive arguments fall back to
// the defaults.
func NewLegalChunker(chunkSize, overlap int) *LegalChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 5
		}
	}
	return &LegalChunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits a document and tags each chunk with its article locator.
func (c *LegalChunker) Chunk(doc document.Document) []document.Chunk {
	pieces := c.split(doc.Content, 0)
	chunks := make([]document.Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunk := document.Chunk{
			DocumentID: doc.ID,
			ChunkID:    doc.ID + ":" + strconv.Itoa(i),
			Index:      i,
			Text:       text,
		}
		if m := articleRe.FindStringSubmatch(text); m != nil {
			chunk.Article = m[1]
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (c *LegalChunker) split(text string, level int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{text}
	}
	if level >= len(legalSeparators) {
		return c.window(text)
	}

	sections := splitBefore(text, legalSeparators[level])
	if len(sections) == 1 {
		return c.split(text, level+1)
	}

	var out []string
	var buf strings.Builder
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			out = append(out, s)
		}
		buf.Reset()
	}
	for _, section := range sections {
		if len(section) > c.chunkSize {
			flush()
			out = append(out, c.split(section, level+1)...)
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(section) > c.chunkSize {
			flush()
		}
		buf.WriteString(section)
	}
	flush()
	return out
}

// window cuts a run with no usable separators into fixed-size chunks
// that overlap by c.overlap characters.
func (c *LegalChunker) window(s string) []string {
	var out []string
	step := c.chunkSize - c.overlap
	for i := 0; i < len(s); i += step {
		end := i + c.chunkSize
		if end > len(s) {
			end = len(s)
		}
		if piece := strings.TrimSpace(s[i:end]); piece != "" {
			out = append(out, piece)
		}
		if end == len(s) {
			break
		}
	}
	return out
}

// splitBefore cuts text at every occurrence of sep, keeping sep at the
// start of the section that follows it.
func splitBefore(text, sep string) []string {
	var sections []string
	start := 0
	for {
		idx := strings.Index(text[start:], sep)
		if idx < 0 {
			break
		}
		cut := start + idx
		if cut > 0 {
			sections = append(sections, text[:cut])
			text = text[cut:]
		}
		start = len(sep)
	}
	if text != "" {
		sections = append(sections, text)
	}
	return sections
}
