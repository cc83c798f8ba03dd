// Package mail retrieves receiving-slip messages and their image
// payloads from Gmail.
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hmoraga/recepciones/internal/common"
	"github.com/hmoraga/recepciones/internal/model"
)

const gmailUser = "me"

// GmailConfig holds the message source settings.
type GmailConfig struct {
	Query      string
	MaxResults int64
}

// GmailSource implements service.MessageSource against the Gmail API.
type GmailSource struct {
	svc    *gmail.Service
	loc    *time.Location
	logger *slog.Logger
	query  string
	max    int64
}

// NewGmailSource creates the source and verifies the credentials by
// fetching the profile, which also logs which mailbox a run reads.
func NewGmailSource(ctx context.Context, cfg GmailConfig, ts oauth2.TokenSource, loc *time.Location, logger *slog.Logger) (*GmailSource, error) {
	if cfg.Query == "" {
		return nil, fmt.Errorf("%w: gmail.query", common.ErrMissingConfig)
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}

	profile, err := svc.Users.GetProfile(gmailUser).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSourceUnavailable, err)
	}
	logger.Info("gmail authenticated", "mailbox", profile.EmailAddress)

	return &GmailSource{
		svc:    svc,
		loc:    loc,
		logger: logger,
		query:  cfg.Query,
		max:    cfg.MaxResults,
	}, nil
}

// List returns the IDs of messages matching the configured query.
func (s *GmailSource) List(ctx context.Context) ([]string, error) {
	res, err := s.svc.Users.Messages.List(gmailUser).
		Q(s.query).
		MaxResults(s.max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSourceUnavailable, err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	s.logger.Info("messages matched query", "count", len(ids))
	return ids, nil
}

// Fetch downloads a message's headers and every decodable image part.
func (s *GmailSource) Fetch(ctx context.Context, id string) (*model.Message, error) {
	msg, err := s.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: message %s: %v", common.ErrSourceUnavailable, id, err)
	}

	date := ""
	if msg.Payload != nil {
		date = headerValue(msg.Payload.Headers, "date")
	}

	out := &model.Message{
		ID:   msg.Id,
		Date: FormatMailDate(date, s.loc),
	}
	if msg.Payload != nil {
		s.collectImages(ctx, msg.Id, msg.Payload, 0, &out.Images)
	}
	s.logger.Info("images collected", "message_id", msg.Id, "images", len(out.Images))
	return out, nil
}

// collectImages walks the MIME tree. Failures to download or decode a
// single part are logged and skipped; they never fail the message.
func (s *GmailSource) collectImages(ctx context.Context, msgID string, part *gmail.MessagePart, depth int, out *[]model.ImagePart) {
	s.logger.Debug("mime part",
		"depth", depth,
		"mime", part.MimeType,
		"filename", part.Filename,
		"has_attachment", part.Body != nil && part.Body.AttachmentId != "",
		"has_data", part.Body != nil && part.Body.Data != "")

	if strings.HasPrefix(part.MimeType, "image/") && part.Body != nil {
		if data, ok := s.partData(ctx, msgID, part); ok {
			origin := model.OriginInline
			if part.Filename != "" {
				origin = model.OriginAttachment
			}
			*out = append(*out, model.ImagePart{Origin: origin, Data: data})
			s.logger.Debug("image part added", "origin", origin, "bytes", len(data))
		}
	}

	for _, p := range part.Parts {
		s.collectImages(ctx, msgID, p, depth+1, out)
	}
}

func (s *GmailSource) partData(ctx context.Context, msgID string, part *gmail.MessagePart) ([]byte, bool) {
	encoded := part.Body.Data
	if part.Body.AttachmentId != "" {
		att, err := s.svc.Users.Messages.Attachments.Get(gmailUser, msgID, part.Body.AttachmentId).
			Context(ctx).
			Do()
		if err != nil {
			s.logger.Warn("failed to download attachment", "message_id", msgID, "error", err)
			return nil, false
		}
		encoded = att.Data
	}
	if encoded == "" {
		return nil, false
	}

	data, err := decodeBody(encoded)
	if err != nil {
		s.logger.Warn("failed to decode image part", "message_id", msgID, "error", err)
		return nil, false
	}
	return data, true
}

// decodeBody handles Gmail's URL-safe base64, with and without
// padding.
func decodeBody(encoded string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(encoded); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(encoded)
}

func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
