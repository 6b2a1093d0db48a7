package adapters

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/domain"
)

var (
	wordCharRe   = regexp.MustCompile(`[\p{L}\p{N}]`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	blankRunRe   = regexp.MustCompile(`\n\s*\n+`)
	pageNumRe    = regexp.MustCompile(`\n\s*\d+\s*\n`)
	missSpaceRe  = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	missPunctRe  = regexp.MustCompile(`([.!?])(\p{Lu})`)
	htmlTagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	controlRunRe = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'", "‚", "'",
)

type fitzExtractor struct {
	logger outbound.LoggerPort
}

// NewFitzExtractor extracts readable text from PDF bytes via MuPDF.
// Plain-text extraction runs first; when its result is implausible for
// the document size it falls back to HTML extraction with tags stripped,
// which recovers text from PDFs with broken text encodings.
func NewFitzExtractor(logger outbound.LoggerPort) outbound.TextExtractorPort {
	return &fitzExtractor{logger: logger}
}

func (e *fitzExtractor) Extract(ctx context.Context, document []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(document)
	if err != nil {
		return nil, &domain.ExtractionError{Reason: "document is not a readable PDF", Err: err}
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, &domain.ExtractionError{Reason: "document has no pages"}
	}

	segments, err := e.extractPlainText(ctx, doc, pages)
	if err != nil {
		return nil, err
	}

	if !plausibleText(segments, len(document)) {
		e.logger.WarnWithFields("plain text extraction implausible, trying HTML fallback", map[string]interface{}{
			"pages": pages,
			"bytes": len(document),
		})
		segments, err = e.extractFromHTML(ctx, doc, pages)
		if err != nil {
			return nil, err
		}
	}

	if !plausibleText(segments, len(document)) {
		return nil, &domain.ExtractionError{Reason: "no readable text found in document"}
	}

	e.logger.InfoWithFields("extracted document text", map[string]interface{}{
		"pages":    pages,
		"segments": len(segments),
	})

	return segments, nil
}

func (e *fitzExtractor) extractPlainText(ctx context.Context, doc *fitz.Document, pages int) ([]string, error) {
	var segments []string
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageText, err := doc.Text(i)
		if err != nil {
			return nil, &domain.ExtractionError{Reason: "failed to read page text", Err: err}
		}
		if cleaned := cleanText(pageText); cleaned != "" {
			segments = append(segments, cleaned)
		}
	}
	return segments, nil
}

func (e *fitzExtractor) extractFromHTML(ctx context.Context, doc *fitz.Document, pages int) ([]string, error) {
	var segments []string
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageHTML, err := doc.HTML(i, false)
		if err != nil {
			return nil, &domain.ExtractionError{Reason: "failed to read page markup", Err: err}
		}
		text := htmlTagRe.ReplaceAllString(pageHTML, " ")
		text = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ").Replace(text)
		if cleaned := cleanText(text); cleaned != "" {
			segments = append(segments, cleaned)
		}
	}
	return segments, nil
}

// plausibleText rejects extraction output that is empty, has no word
// characters, or is implausibly short for the document's byte size.
func plausibleText(segments []string, docBytes int) bool {
	total := 0
	hasWords := false
	for _, s := range segments {
		total += utf8.RuneCountInString(s)
		if !hasWords && wordCharRe.MatchString(s) {
			hasWords = true
		}
	}
	if total == 0 || !hasWords {
		return false
	}

	minChars := docBytes / 10000
	return total >= minChars
}

// cleanText normalizes extraction artifacts: stray page numbers, control
// characters, smart quotes, glued words and runs of whitespace. Paragraph
// breaks survive as blank lines.
func cleanText(text string) string {
	text = quoteReplacer.Replace(text)
	text = controlRunRe.ReplaceAllString(text, "")
	text = pageNumRe.ReplaceAllString(text, "\n")
	text = missSpaceRe.ReplaceAllString(text, "$1 $2")
	text = missPunctRe.ReplaceAllString(text, "$1 $2")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
