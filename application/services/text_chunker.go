package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tbui88/pdf-tts/application/ports/inbound"
	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/domain"
)

// wordLookback is how far back from the size limit the splitter searches
// for a whitespace boundary before giving up and hard-cutting.
const wordLookback = 200

type textChunker struct {
	maxChars int
	minChars int
	logger   outbound.LoggerPort
}

// NewTextChunker builds a chunker that splits at paragraph, then sentence,
// then whitespace boundaries, hard-cutting only when no boundary exists
// within the lookback window. Chunks shorter than minChars are merged with
// their successor when the result still fits.
func NewTextChunker(maxChars int, minChars int, logger outbound.LoggerPort) inbound.TextChunkerPort {
	return &textChunker{
		maxChars: maxChars,
		minChars: minChars,
		logger:   logger,
	}
}

func (c *textChunker) Chunk(text string) []domain.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var pieces []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		paraLen := utf8.RuneCountInString(paragraph)

		if currentLen+paraLen+2 > c.maxChars {
			flush()
			if paraLen > c.maxChars {
				pieces = append(pieces, c.splitBySentences(paragraph)...)
				continue
			}
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(paragraph)
		currentLen += paraLen
	}
	flush()

	pieces = c.mergeShortPieces(pieces)

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			Index:  i,
			Text:   piece,
			Status: domain.ChunkStatusPending,
		}
	}

	c.logger.InfoWithFields("split text into chunks", map[string]interface{}{
		"chars":  utf8.RuneCountInString(text),
		"chunks": len(chunks),
	})

	return chunks
}

// splitBySentences packs whole sentences into pieces no longer than the
// limit. Sentence-ending punctuation stays with its sentence, so no
// characters are dropped.
func (c *textChunker) splitBySentences(paragraph string) []string {
	sentences := splitSentences(paragraph)

	var pieces []string
	var current strings.Builder
	currentLen := 0

	for _, sentence := range sentences {
		sentLen := utf8.RuneCountInString(sentence)

		if currentLen+sentLen+1 > c.maxChars {
			if currentLen > 0 {
				pieces = append(pieces, strings.TrimSpace(current.String()))
				current.Reset()
				currentLen = 0
			}
			if sentLen > c.maxChars {
				pieces = append(pieces, c.splitByWhitespace(sentence)...)
				continue
			}
		}
		if currentLen > 0 {
			current.WriteString(" ")
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sentLen
	}
	if currentLen > 0 {
		pieces = append(pieces, strings.TrimSpace(current.String()))
	}

	return pieces
}

// splitByWhitespace cuts an over-long sentence at the last whitespace
// before the limit, falling back to a hard cut when none exists within
// the lookback window.
func (c *textChunker) splitByWhitespace(sentence string) []string {
	runes := []rune(sentence)

	var pieces []string
	for len(runes) > c.maxChars {
		cut := -1
		low := c.maxChars - wordLookback
		if low < 0 {
			low = 0
		}
		for i := c.maxChars; i > low; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}
		if cut == -1 {
			cut = c.maxChars
		}

		piece := strings.TrimSpace(string(runes[:cut]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " \t\n\r"))
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}

	return pieces
}

// mergeShortPieces joins pieces below the minimum with their successor
// when the combined piece still fits, so the voice service is not called
// for trivial spans.
func (c *textChunker) mergeShortPieces(pieces []string) []string {
	if len(pieces) < 2 {
		return pieces
	}

	var merged []string
	i := 0
	for i < len(pieces) {
		piece := pieces[i]
		if utf8.RuneCountInString(piece) < c.minChars && i < len(pieces)-1 {
			next := pieces[i+1]
			if utf8.RuneCountInString(piece)+utf8.RuneCountInString(next)+2 <= c.maxChars {
				merged = append(merged, piece+"\n\n"+next)
				i += 2
				continue
			}
		}
		merged = append(merged, piece)
		i++
	}

	return merged
}

// splitSentences breaks text after runs of sentence-ending punctuation
// (plus any closing quote) followed by whitespace. Delimiters remain part
// of the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)

	start := 0
	i := 0
	for i < len(runes) {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			j := i + 1
			for j < len(runes) && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?') {
				j++
			}
			for j < len(runes) && (runes[j] == '"' || runes[j] == '\'' || runes[j] == ')') {
				j++
			}
			if j >= len(runes) || unicode.IsSpace(runes[j]) {
				sentence := strings.TrimSpace(string(runes[start:j]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				for j < len(runes) && unicode.IsSpace(runes[j]) {
					j++
				}
				start = j
				i = j
				continue
			}
			i = j
			continue
		}
		i++
	}
	if start < len(runes) {
		tail := strings.TrimSpace(string(runes[start:]))
		if tail != "" {
			sentences = append(sentences, tail)
		}
	}

	return sentences
}
