package service

import "strings"

// DefaultMaxChunkTokens is the chunk cap used when no limit is configured.
const DefaultMaxChunkTokens = 512

// TextChunk is one token-bounded segment of a slide's text.
type TextChunk struct {
	Text       string
	TokenCount int
}

// Chunker splits raw text into token-bounded chunks. Tokens are
// whitespace-delimited words; chunk boundaries never split a word, so
// joining the chunk texts reconstructs the input modulo whitespace.
type Chunker struct {
	maxTokens int
}

// NewChunker creates a Chunker with the given per-chunk token cap.
// Parameters:
//   - maxTokens: maximum tokens per chunk; values <= 0 use DefaultMaxChunkTokens.
// Returns:
//   - *Chunker: configured chunker.
func NewChunker(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxChunkTokens
	}
	return &Chunker{maxTokens: maxTokens}
}

// Chunk splits rawText into ordered chunks. Deterministic: the same input
// always produces the same sequence. Empty or whitespace-only input yields
// no chunks.
// Parameters:
//   - rawText: text to split.
// Returns:
//   - []TextChunk: ordered chunks, each within the token cap.
func (c *Chunker) Chunk(rawText string) []TextChunk {
	words := strings.Fields(rawText)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]TextChunk, 0, (len(words)+c.maxTokens-1)/c.maxTokens)
	for start := 0; start < len(words); start += c.maxTokens {
		end := start + c.maxTokens
		if end > len(words) {
			end = len(words)
		}
		group := words[start:end]
		chunks = append(chunks, TextChunk{
			Text:       strings.Join(group, " "),
			TokenCount: len(group),
		})
	}
	return chunks
}
