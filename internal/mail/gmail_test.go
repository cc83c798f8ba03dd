package mail

import (
	"context"
	"encoding/base64"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/hmoraga/recepciones/internal/model"
)

func TestDecodeBody(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}

	t.Run("padded url-safe base64", func(t *testing.T) {
		got, err := decodeBody(base64.URLEncoding.EncodeToString(payload))
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("unpadded url-safe base64", func(t *testing.T) {
		got, err := decodeBody(base64.RawURLEncoding.EncodeToString(payload))
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := decodeBody("!!not base64!!")
		assert.Error(t, err)
	})
}

func TestHeaderValue(t *testing.T) {
	headers := []*gmail.MessagePartHeader{
		{Name: "Subject", Value: "Recepción bodega"},
		{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
	}

	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", headerValue(headers, "date"))
	assert.Equal(t, "", headerValue(headers, "from"))
}

func TestCollectImagesInlineParts(t *testing.T) {
	imageBytes := []byte{0x89, 0x50, 0x4e, 0x47}
	encoded := base64.URLEncoding.EncodeToString(imageBytes)

	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: "aG9sYQ=="},
			},
			{
				// Filename present: counts as an attachment.
				MimeType: "image/jpeg",
				Filename: "guia.jpg",
				Body:     &gmail.MessagePartBody{Data: encoded},
			},
			{
				MimeType: "multipart/related",
				Parts: []*gmail.MessagePart{
					{
						// No filename: inline image.
						MimeType: "image/png",
						Body:     &gmail.MessagePartBody{Data: encoded},
					},
					{
						// Empty body parts are skipped, not errors.
						MimeType: "image/png",
						Body:     &gmail.MessagePartBody{},
					},
				},
			},
		},
	}

	s := &GmailSource{
		loc:    time.UTC,
		logger: slog.Default(),
	}

	var images []model.ImagePart
	s.collectImages(context.Background(), "m1", payload, 0, &images)

	require.Len(t, images, 2)
	assert.Equal(t, model.OriginAttachment, images[0].Origin)
	assert.Equal(t, imageBytes, images[0].Data)
	assert.Equal(t, model.OriginInline, images[1].Origin)
}
