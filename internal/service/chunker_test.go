package service

import (
	"strings"
	"testing"
)

// TestChunkerDeterminism verifies that the same input always produces the same chunks
func TestChunkerDeterminism(t *testing.T) {
	chunker := NewChunker(4)
	input := "alpha beta gamma delta epsilon zeta eta theta iota"

	first := chunker.Chunk(input)
	second := chunker.Chunk(input)
	third := chunker.Chunk(input)

	if len(first) != len(second) || len(first) != len(third) {
		t.Fatalf("Chunk count mismatch across runs: %d, %d, %d", len(first), len(second), len(third))
	}
	for i := range first {
		if first[i].Text != second[i].Text || first[i].Text != third[i].Text {
			t.Errorf("Chunk %d differs across runs: %q, %q, %q", i, first[i].Text, second[i].Text, third[i].Text)
		}
	}
}

// TestChunkerCap verifies that no chunk exceeds the configured token cap
func TestChunkerCap(t *testing.T) {
	testCases := []struct {
		name       string
		maxTokens  int
		words      int
		wantChunks int
	}{
		{name: "exact multiple", maxTokens: 5, words: 10, wantChunks: 2},
		{name: "remainder chunk", maxTokens: 5, words: 12, wantChunks: 3},
		{name: "single short chunk", maxTokens: 100, words: 3, wantChunks: 1},
		{name: "one word per chunk", maxTokens: 1, words: 4, wantChunks: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			words := make([]string, tc.words)
			for i := range words {
				words[i] = "word"
			}
			chunker := NewChunker(tc.maxTokens)

			chunks := chunker.Chunk(strings.Join(words, " "))

			if len(chunks) != tc.wantChunks {
				t.Fatalf("Chunk count: got %d, want %d", len(chunks), tc.wantChunks)
			}
			total := 0
			for i, chunk := range chunks {
				if chunk.TokenCount > tc.maxTokens {
					t.Errorf("Chunk %d exceeds cap: got %d tokens, max %d", i, chunk.TokenCount, tc.maxTokens)
				}
				if got := len(strings.Fields(chunk.Text)); got != chunk.TokenCount {
					t.Errorf("Chunk %d token count mismatch: counted %d, reported %d", i, got, chunk.TokenCount)
				}
				total += chunk.TokenCount
			}
			if total != tc.words {
				t.Errorf("Total tokens: got %d, want %d", total, tc.words)
			}
		})
	}
}

// TestChunkerReconstruction verifies that chunking loses no content beyond whitespace normalization
func TestChunkerReconstruction(t *testing.T) {
	input := "  The quick\tbrown fox\n\njumps   over the lazy dog  "
	chunker := NewChunker(3)

	chunks := chunker.Chunk(input)

	var parts []string
	for _, chunk := range chunks {
		parts = append(parts, chunk.Text)
	}
	got := strings.Join(parts, " ")
	want := strings.Join(strings.Fields(input), " ")
	if got != want {
		t.Errorf("Reconstructed text mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

// TestChunkerEmptyInput verifies that empty or whitespace-only text yields no chunks
func TestChunkerEmptyInput(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "empty string", input: ""},
		{name: "spaces only", input: "    "},
		{name: "mixed whitespace", input: " \t\n\r "},
	}

	chunker := NewChunker(8)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := chunker.Chunk(tc.input)
			if len(chunks) != 0 {
				t.Errorf("Expected no chunks, got %d", len(chunks))
			}
		})
	}
}

// TestChunkerDefaultCap verifies that a non-positive cap falls back to the default
func TestChunkerDefaultCap(t *testing.T) {
	for _, max := range []int{0, -5} {
		chunker := NewChunker(max)
		if chunker.maxTokens != DefaultMaxChunkTokens {
			t.Errorf("NewChunker(%d): got cap %d, want %d", max, chunker.maxTokens, DefaultMaxChunkTokens)
		}
	}
}
