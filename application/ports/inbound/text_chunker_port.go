package inbound

import "github.com/tbui88/pdf-tts/domain"

// TextChunkerPort splits extracted text into bounded-size pending chunks,
// preferring paragraph, then sentence, then whitespace boundaries.
type TextChunkerPort interface {
	Chunk(text string) []domain.Chunk
}
