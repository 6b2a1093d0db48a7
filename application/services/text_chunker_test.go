package services

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/tbui88/pdf-tts/domain"
)

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func joinChunks(chunks []domain.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

func TestTextChunker_Lossless(t *testing.T) {
	inputs := map[string]string{
		"single paragraph": "The quick brown fox jumps over the lazy dog.",
		"multi paragraph": "First paragraph with some text here.\n\nSecond paragraph follows after a break.\n\n" +
			"Third one closes the document.",
		"long sentences": strings.Repeat("This sentence repeats to build length. ", 40),
		"no boundaries":  strings.Repeat("x", 500),
		"unicode":        strings.Repeat("Ünïcodé tëxt wîth áccents. ", 30),
	}

	chunker := NewTextChunker(120, 10, nopLogger{})

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			chunks := chunker.Chunk(input)

			got := stripWhitespace(joinChunks(chunks))
			want := stripWhitespace(input)
			if got != want {
				t.Errorf("chunking lost content:\n got %q\nwant %q", got, want)
			}

			for _, c := range chunks {
				if n := utf8.RuneCountInString(c.Text); n > 120 {
					t.Errorf("chunk %d has %d chars, limit 120", c.Index, n)
				}
				if c.Status != domain.ChunkStatusPending {
					t.Errorf("chunk %d status = %s, want pending", c.Index, c.Status)
				}
			}
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunk at position %d has index %d", i, c.Index)
				}
			}
		})
	}
}

func TestTextChunker_EmptyInput(t *testing.T) {
	chunker := NewTextChunker(100, 10, nopLogger{})

	for _, input := range []string{"", "   ", "\n\n\t \n"} {
		if chunks := chunker.Chunk(input); len(chunks) != 0 {
			t.Errorf("Chunk(%q) = %d chunks, want 0", input, len(chunks))
		}
	}
}

func TestTextChunker_PrefersParagraphBoundaries(t *testing.T) {
	para1 := "First paragraph stays whole because it fits."
	para2 := "Second paragraph also fits on its own."
	chunker := NewTextChunker(60, 5, nopLogger{})

	chunks := chunker.Chunk(para1 + "\n\n" + para2)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Text != para1 {
		t.Errorf("chunk 0 = %q, want %q", chunks[0].Text, para1)
	}
	if chunks[1].Text != para2 {
		t.Errorf("chunk 1 = %q, want %q", chunks[1].Text, para2)
	}
}

func TestTextChunker_SplitsAtSentences(t *testing.T) {
	text := "One short sentence. Another short sentence. A third short sentence here."
	chunker := NewTextChunker(50, 5, nopLogger{})

	chunks := chunker.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	for _, c := range chunks {
		trimmed := strings.TrimSpace(c.Text)
		if !strings.HasSuffix(trimmed, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", c.Index, c.Text)
		}
	}
}

func TestTextChunker_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunker := NewTextChunker(100, 5, nopLogger{})

	chunks := chunker.Chunk(text)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if got := stripWhitespace(joinChunks(chunks)); got != text {
		t.Errorf("hard cut lost content: got %d chars, want %d", len(got), len(text))
	}
}

func TestTextChunker_MergesShortChunks(t *testing.T) {
	text := "Tiny.\n\nThis paragraph is long enough to stand on its own as one chunk."
	chunker := NewTextChunker(200, 20, nopLogger{})

	chunks := chunker.Chunk(text)

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 merged chunk", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "Tiny.") {
		t.Errorf("merged chunk dropped short piece: %q", chunks[0].Text)
	}
}
