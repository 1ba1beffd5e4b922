package service

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/manifest"
	"github.com/streamgate/streamgate/ports"
)

// StreamService issues and validates streaming tokens and produces
// client-ready manifests. Token validation is a pure MAC check plus policy;
// the hot path never touches the session store.
type StreamService struct {
	tokenizer ports.Tokenizer
	catalog   ports.VideoCatalog
	events    ports.EventPublisher

	tokenTTL    time.Duration
	maxTokenTTL time.Duration
	strictIP    bool
}

// StreamConfig carries the explicit knobs for a StreamService.
type StreamConfig struct {
	TokenTTL    time.Duration // default 10m
	MaxTokenTTL time.Duration // hard cap on requested TTLs, default 15m
	StrictIP    bool          // hard-fail IP binding mismatches
}

// NewStreamService creates a new stream service.
func NewStreamService(tokenizer ports.Tokenizer, catalog ports.VideoCatalog, events ports.EventPublisher, cfg StreamConfig) *StreamService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 10 * time.Minute
	}
	if cfg.MaxTokenTTL <= 0 {
		cfg.MaxTokenTTL = 15 * time.Minute
	}
	return &StreamService{
		tokenizer:   tokenizer,
		catalog:     catalog,
		events:      events,
		tokenTTL:    cfg.TokenTTL,
		maxTokenTTL: cfg.MaxTokenTTL,
		strictIP:    cfg.StrictIP,
	}
}

// IssueTicket mints a streaming token scoped to one video and bound to the
// requesting client, and returns it embedded in the delivery URLs. A zero
// ttl takes the default; requested TTLs are clamped to the configured
// maximum so callers cannot mint long-lived bearer credentials.
func (s *StreamService) IssueTicket(ctx context.Context, videoID, subjectID, clientIP, userAgent string, ttl time.Duration) (core.Ticket, error) {
	if videoID == "" {
		return core.Ticket{}, core.E(core.KindValidation, "video id is required")
	}
	if _, err := s.catalog.Manifest(ctx, videoID); err != nil {
		return core.Ticket{}, err
	}

	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	if ttl > s.maxTokenTTL {
		ttl = s.maxTokenTTL
	}

	now := time.Now()
	claims := &core.StreamClaims{
		VideoID:   videoID,
		SubjectID: subjectID,
		ClientIP:  clientIP,
		UserAgent: s.tokenizer.BindingDigest(userAgent),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	token, err := s.tokenizer.ClaimsToToken(claims)
	if err != nil {
		return core.Ticket{}, core.Wrap(core.E(core.KindInternal, "failed to issue token"), err)
	}

	s.publish(ctx, ports.AuditEvent{Type: ports.EventTicketIssued, SubjectID: subjectID, VideoID: videoID, At: now})

	return core.Ticket{
		Token:          token,
		ManifestURL:    fmt.Sprintf("/stream/%s/manifest.m3u8?token=%s", videoID, token),
		KeyDeliveryURL: fmt.Sprintf("/stream/%s/key?token=%s", videoID, token),
	}, nil
}

// ValidateToken checks, in order: signature integrity, expiry, video scope,
// client bindings. A user-agent mismatch is a hard rejection, and a bound
// token presented without the attribute counts as a mismatch — stripping
// the header must not widen the token. An IP mismatch is soft by default
// (NATs and mobile networks rotate addresses mid-session) but is published
// for observability, and hard when StrictIP is set.
func (s *StreamService) ValidateToken(ctx context.Context, token, expectedVideoID, requestIP, requestUserAgent string) (*core.StreamClaims, error) {
	claims, err := s.tokenizer.TokenToClaims(token)
	if err != nil {
		return nil, err
	}

	if claims.VideoID != expectedVideoID {
		return nil, core.ErrWrongResource
	}

	if claims.UserAgent != "" {
		digest := s.tokenizer.BindingDigest(requestUserAgent)
		if subtle.ConstantTimeCompare([]byte(claims.UserAgent), []byte(digest)) != 1 {
			return nil, core.ErrBindingMismatch
		}
	}

	if claims.ClientIP != "" && claims.ClientIP != requestIP {
		s.publish(ctx, ports.AuditEvent{
			Type:      ports.EventBindingMismatch,
			SubjectID: claims.SubjectID,
			VideoID:   claims.VideoID,
			Detail:    fmt.Sprintf("token ip %s, request ip %s", claims.ClientIP, requestIP),
			At:        time.Now(),
		})
		if s.strictIP {
			return nil, core.ErrBindingMismatch
		}
	}

	return claims, nil
}

// Manifest returns the rewritten manifest for a video, with every gated URI
// carrying the token. An empty token still corrects paths to the gated
// endpoints; those endpoints reject the tokenless requests themselves.
func (s *StreamService) Manifest(ctx context.Context, videoID, token string) ([]byte, core.ManifestFormat, error) {
	src, err := s.catalog.Manifest(ctx, videoID)
	if err != nil {
		return nil, "", err
	}

	rctx := core.RewriteContext{
		VideoID:         videoID,
		Token:           token,
		BaseSegmentPath: fmt.Sprintf("/stream/%s/segment", videoID),
		BaseKeyPath:     fmt.Sprintf("/stream/%s/key", videoID),
	}

	body, err := manifest.Rewrite(src, rctx)
	if err != nil {
		return nil, "", err
	}
	return body, src.Format, nil
}

// Segment opens a media segment after the caller has validated the token.
func (s *StreamService) Segment(ctx context.Context, videoID, name string) (io.ReadCloser, error) {
	return s.catalog.Segment(ctx, videoID, name)
}

// ClearkeyResponse is the JSON Web Key set released by the key-delivery
// endpoint. Key material only ever travels through this gated call.
type ClearkeyResponse struct {
	Keys []ClearkeyEntry `json:"keys"`
	Type string          `json:"type"`
}

// ClearkeyEntry is one key in a clearkey response.
type ClearkeyEntry struct {
	KeyType string `json:"kty"`
	KeyID   string `json:"kid"`
	Key     string `json:"k"`
}

// Key builds the clearkey response for a video. The caller must have
// re-validated the token independently before releasing this.
func (s *StreamService) Key(ctx context.Context, videoID string) (*ClearkeyResponse, error) {
	kid, key, err := s.catalog.Key(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return &ClearkeyResponse{
		Keys: []ClearkeyEntry{{
			KeyType: "oct",
			KeyID:   base64.RawURLEncoding.EncodeToString(kid),
			Key:     base64.RawURLEncoding.EncodeToString(key),
		}},
		Type: "temporary",
	}, nil
}

func (s *StreamService) publish(ctx context.Context, event ports.AuditEvent) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, event)
}
