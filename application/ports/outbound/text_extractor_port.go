package outbound

import "context"

// TextExtractorPort turns raw document bytes into cleaned text segments
// in reading order (one per logical page or block).
type TextExtractorPort interface {
	Extract(ctx context.Context, document []byte) ([]string, error)
}
