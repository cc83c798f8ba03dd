package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hmoraga/recepciones/internal/model"
	"github.com/hmoraga/recepciones/internal/ocr"
)

// SKUs are 10-16 digit runs. Spaces are stripped first because OCR
// tends to split long numbers across tokens.
var skuRunRe = regexp.MustCompile(`\d{10,16}`)

var digitsOnlyRe = regexp.MustCompile(`^\d+$`)

// columnSlack widens the header span when matching number centers, in
// pixels of the upscaled image.
const columnSlack = 5

// ExtractLine derives at most one candidate record from a line
// cluster. Lines without a SKU run, or without any purely numeric
// token, yield nothing.
//
// Quantity resolution is a three-tier policy, evaluated in order:
//  1. a RECIBIDAS span exists and a digit token's center falls inside
//     it (±columnSlack): take the rightmost such token;
//  2. either header was detected but tier 1 matched nothing: the
//     received column is empty, so the quantity is 0;
//  3. no headers at all: fall back to the rightmost digit token.
func ExtractLine(cluster ocr.LineCluster, hdr Headers) (model.CandidateRecord, bool) {
	lineText := cluster.Text()

	sku := skuRunRe.FindString(strings.ReplaceAll(lineText, " ", ""))
	if sku == "" {
		return model.CandidateRecord{}, false
	}

	digits := digitTokens(cluster)
	if len(digits) == 0 {
		return model.CandidateRecord{}, false
	}

	if hdr.Received != nil {
		if t, ok := rightmostInSpan(digits, *hdr.Received); ok {
			return candidate(sku, t.Text)
		}
	}
	if hdr.Received != nil || hdr.Sent != nil {
		return model.CandidateRecord{RawSKU: sku, Quantity: 0}, true
	}
	return candidate(sku, digits[len(digits)-1].Text)
}

// digitTokens returns the cluster's purely numeric tokens in
// left-to-right order.
func digitTokens(cluster ocr.LineCluster) []ocr.Token {
	var out []ocr.Token
	for _, t := range cluster.Tokens {
		if digitsOnlyRe.MatchString(t.Text) {
			out = append(out, t)
		}
	}
	return out
}

// rightmostInSpan finds the digit token with the largest Left whose
// center sits inside the span widened by columnSlack.
func rightmostInSpan(digits []ocr.Token, span Span) (ocr.Token, bool) {
	var best ocr.Token
	found := false
	for _, t := range digits {
		cx := t.CenterX()
		if cx < float64(span.StartX-columnSlack) || cx > float64(span.EndX+columnSlack) {
			continue
		}
		if !found || t.Left > best.Left {
			best = t
			found = true
		}
	}
	return best, found
}

func candidate(sku, quantity string) (model.CandidateRecord, bool) {
	n, err := strconv.Atoi(quantity)
	if err != nil {
		// Numeric token too large for an int; not a plausible quantity.
		return model.CandidateRecord{}, false
	}
	return model.CandidateRecord{RawSKU: sku, Quantity: n}, true
}
