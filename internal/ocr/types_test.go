package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster(t *testing.T) {
	tokens := []Token{
		// Second visual line, out of order on purpose.
		{Text: "12", Left: 230, Block: 1, Paragraph: 1, Line: 2},
		{Text: "1780234567890", Left: 10, Block: 1, Paragraph: 1, Line: 2},
		// First visual line.
		{Text: "RECIBIDAS", Left: 200, Block: 1, Paragraph: 1, Line: 1},
		{Text: "SKU", Left: 10, Block: 1, Paragraph: 1, Line: 1},
		// Blank tokens are dropped before clustering.
		{Text: "   ", Left: 50, Block: 1, Paragraph: 1, Line: 1},
		{Text: "", Left: 60, Block: 1, Paragraph: 1, Line: 2},
		// A different block sorts after.
		{Text: "pie", Left: 5, Block: 2, Paragraph: 1, Line: 1},
	}

	clusters := Cluster(tokens)
	require.Len(t, clusters, 3)

	assert.Equal(t, "SKU RECIBIDAS", clusters[0].Text())
	assert.Equal(t, "1780234567890 12", clusters[1].Text())
	assert.Equal(t, "pie", clusters[2].Text())
}

func TestClusterAllBlank(t *testing.T) {
	clusters := Cluster([]Token{
		{Text: " ", Block: 1, Paragraph: 1, Line: 1},
		{Text: "\t", Block: 1, Paragraph: 1, Line: 1},
	})
	assert.Empty(t, clusters)
}

func TestTokenCenterX(t *testing.T) {
	tok := Token{Left: 200, Width: 61}
	assert.InDelta(t, 230.5, tok.CenterX(), 0.001)
}
