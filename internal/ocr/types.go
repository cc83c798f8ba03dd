// Package ocr turns a normalized image into positioned text tokens
// using Tesseract.
package ocr

import (
	"sort"
	"strings"
)

// Token is a single recognized word with its geometry. Confidence is
// on Tesseract's 0-100 scale.
type Token struct {
	Text       string
	Left       int
	Top        int
	Width      int
	Height     int
	Confidence float64
	Block      int
	Paragraph  int
	Line       int
}

// CenterX is the horizontal center of the token's bounding box, used
// to decide which table column a number sits under.
func (t Token) CenterX() float64 {
	return float64(t.Left) + float64(t.Width)/2
}

// LineCluster groups the tokens of one visual row of text, as reported
// by Tesseract's block/paragraph/line segmentation.
type LineCluster struct {
	Block     int
	Paragraph int
	Line      int
	Tokens    []Token
}

// Text joins the cluster's tokens in reading order with single spaces.
func (c LineCluster) Text() string {
	parts := make([]string, len(c.Tokens))
	for i, t := range c.Tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// Cluster groups tokens by (block, paragraph, line). Tokens whose text
// is empty after trimming are dropped first; within each cluster
// tokens are ordered left to right, and clusters come back in reading
// order.
func Cluster(tokens []Token) []LineCluster {
	type lineKey struct {
		block, par, line int
	}

	grouped := make(map[lineKey][]Token)
	for _, t := range tokens {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			continue
		}
		k := lineKey{t.Block, t.Paragraph, t.Line}
		grouped[k] = append(grouped[k], t)
	}

	clusters := make([]LineCluster, 0, len(grouped))
	for k, toks := range grouped {
		sort.SliceStable(toks, func(i, j int) bool {
			return toks[i].Left < toks[j].Left
		})
		clusters = append(clusters, LineCluster{
			Block:     k.block,
			Paragraph: k.par,
			Line:      k.line,
			Tokens:    toks,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.Paragraph != b.Paragraph {
			return a.Paragraph < b.Paragraph
		}
		return a.Line < b.Line
	})

	return clusters
}
