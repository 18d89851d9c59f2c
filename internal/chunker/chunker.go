package chunker

import (
	"strings"

	"vector-rag/internal/config"
)

const defaultMaxTokens = 400

// Options controls how text is chunked.
type Options struct {
	MaxTokens int
	Overlap   int
}

// FromSettings maps the chunking settings group onto Options.
func FromSettings(s config.ChunkingSettings) Options {
	return Options{MaxTokens: s.MaxTokens, Overlap: s.Overlap}
}

// normalize applies the default window and keeps the overlap below it.
func (o Options) normalize() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.MaxTokens {
		o.Overlap = o.MaxTokens - 1
	}
	return o
}

// Chunk represents a slice of the input text.
type Chunk struct {
	Index      int
	Text       string
	TokenCount int
}

// Split cuts text into windows of at most MaxTokens words, each sharing
// Overlap words with the previous one. Tokens are whitespace-delimited words.
func Split(text string, opts Options) []Chunk {
	opts = opts.normalize()
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := opts.MaxTokens - opts.Overlap
	chunks := make([]Chunk, 0, len(words)/step+1)
	for start := 0; ; start += step {
		end := min(start+opts.MaxTokens, len(words))
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Text:       strings.Join(words[start:end], " "),
			TokenCount: end - start,
		})
		if end == len(words) {
			return chunks
		}
	}
}

// Texts returns the text of each chunk.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
