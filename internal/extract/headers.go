// Package extract implements the table heuristics: locating the
// ENVIADAS/RECIBIDAS column headers and deriving one (sku, quantity)
// candidate per OCR line.
package extract

import (
	"regexp"

	"github.com/hmoraga/recepciones/internal/ocr"
)

// Span is the horizontal pixel range a column header occupies.
type Span struct {
	StartX int
	EndX   int
}

// Headers holds the detected column spans. A nil span means that
// header was not found anywhere in the image, which is normal for
// partially recognized slips.
type Headers struct {
	Sent     *Span
	Received *Span
}

// Header fragments rather than full words: OCR regularly mangles the
// trailing characters of ENVIADAS/RECIBIDAS.
var (
	sentHeaderRe     = regexp.MustCompile(`(?i)ENVIAD`)
	receivedHeaderRe = regexp.MustCompile(`(?i)RECIB`)
)

// LocateHeaders scans all tokens of an image for the two column
// headers.
func LocateHeaders(tokens []ocr.Token) Headers {
	return Headers{
		Sent:     findSpan(tokens, sentHeaderRe),
		Received: findSpan(tokens, receivedHeaderRe),
	}
}

// findSpan picks the best-matching token for a header pattern:
// highest confidence first, wider box breaking ties.
func findSpan(tokens []ocr.Token, re *regexp.Regexp) *Span {
	var best *ocr.Token
	for i := range tokens {
		t := &tokens[i]
		if !re.MatchString(t.Text) {
			continue
		}
		if best == nil ||
			t.Confidence > best.Confidence ||
			(t.Confidence == best.Confidence && t.Width > best.Width) {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	return &Span{StartX: best.Left, EndX: best.Left + best.Width}
}
