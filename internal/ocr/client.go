package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client runs word-level recognition through a local Tesseract
// install. A fresh gosseract client is created per call; the library's
// client is not safe for reuse across images with different settings.
type Client struct {
	langs  []string
	logger *slog.Logger
}

// NewClient creates an OCR client. The language hint uses Tesseract's
// "spa+eng" convention and may name several languages.
func NewClient(lang string, logger *slog.Logger) *Client {
	if lang == "" {
		lang = "spa+eng"
	}
	return &Client{
		langs:  strings.Split(lang, "+"),
		logger: logger,
	}
}

// Tokens recognizes img and returns one token per word, with blank
// words already dropped.
func (c *Client) Tokens(img image.Image) ([]Token, error) {
	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if err := c.prepare(client, img); err != nil {
		return nil, err
	}

	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("failed to read word boxes: %w", err)
	}

	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:       text,
			Left:       b.Box.Min.X,
			Top:        b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
			Confidence: b.Confidence,
			Block:      b.BlockNum,
			Paragraph:  b.ParNum,
			Line:       b.LineNum,
		})
	}

	c.logger.Debug("ocr tokens recognized", "tokens", len(tokens))
	return tokens, nil
}

// PlainText returns the unstructured recognition of img. Only used for
// diagnostics when structured extraction comes back empty.
func (c *Client) PlainText(img image.Image) (string, error) {
	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if err := c.prepare(client, img); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

func (c *Client) prepare(client *gosseract.Client, img image.Image) error {
	if err := client.SetLanguage(c.langs...); err != nil {
		return fmt.Errorf("failed to set OCR languages %v: %w", c.langs, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode image for OCR: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to hand image to tesseract: %w", err)
	}
	return nil
}
