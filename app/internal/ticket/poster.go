package ticket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
	"github.com/marketconnect/helpdesk-proxy/app/internal/metrics"
)

// cleanupTimeout bounds compensation, which runs even if the request was cancelled.
const cleanupTimeout = 15 * time.Second

// Upstream is the subset of the helpdesk client the saga needs.
type Upstream interface {
	Upload(ctx context.Context, cred *entities.Credential, filename, contentType string, data []byte) (string, error)
	DeleteUpload(ctx context.Context, cred *entities.Credential, token string) error
	UpdateTicket(ctx context.Context, cred *entities.Credential, id string, body []byte) ([]byte, error)
}

// PartialFailureError reports a reply that failed after some uploads had succeeded.
// Orphaned lists the upload tokens that could not be removed again.
type PartialFailureError struct {
	Err      error
	Uploaded []string
	Orphaned []string
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("comment failed after %d upload(s), %d orphaned: %v", len(e.Uploaded), len(e.Orphaned), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Poster runs the upload-then-update sequence for a reply.
type Poster struct {
	upstream Upstream
	metrics  *metrics.Metrics
}

func NewPoster(up Upstream, m *metrics.Metrics) *Poster {
	return &Poster{upstream: up, metrics: m}
}

// Post uploads c's files in order, then adds the comment to ticket id in a
// single update. The update response is returned as-is. If a step fails after
// at least one upload succeeded, the uploads are deleted on a best-effort
// basis and a *PartialFailureError is returned.
func (p *Poster) Post(ctx context.Context, cred *entities.Credential, id string, c Comment) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var tokens []string
	fail := func(err error) error {
		if len(tokens) == 0 {
			return err
		}
		orphaned := p.compensate(ctx, cred, tokens)
		return &PartialFailureError{Err: err, Uploaded: tokens, Orphaned: orphaned}
	}

	for _, f := range c.Files {
		token, err := p.upstream.Upload(ctx, cred, f.Filename, f.ContentType, f.Data)
		if err != nil {
			return nil, fail(fmt.Errorf("uploading %q: %w", f.Filename, err))
		}
		tokens = append(tokens, token)
	}

	payload, err := BuildPayload(c, tokens)
	if err != nil {
		return nil, fail(fmt.Errorf("encoding comment: %w", err))
	}

	resp, err := p.upstream.UpdateTicket(ctx, cred, id, payload)
	if err != nil {
		return nil, fail(fmt.Errorf("updating ticket %s: %w", id, err))
	}
	return resp, nil
}

// compensate deletes every token and returns the ones that could not be deleted.
func (p *Poster) compensate(ctx context.Context, cred *entities.Credential, tokens []string) []string {
	logger := zerolog.Ctx(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	var orphaned []string
	for _, token := range tokens {
		if err := p.upstream.DeleteUpload(ctx, cred, token); err != nil {
			logger.Warn().Err(err).Msg("could not delete upload after failed comment")
			orphaned = append(orphaned, token)
		}
	}
	p.metrics.OrphanedUploads(len(orphaned))
	if len(orphaned) > 0 {
		logger.Error().Int("orphaned", len(orphaned)).Str("uploads", strings.Join(orphaned, ",")).Msg("uploads left orphaned")
	}
	return orphaned
}
