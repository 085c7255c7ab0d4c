// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package videoplatform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	xlog "github.com/ManuGH/transcriptd/internal/log"
	"github.com/ManuGH/transcriptd/internal/metrics"
	"github.com/ManuGH/transcriptd/internal/platform/httpx"
	"github.com/ManuGH/transcriptd/internal/resilience"
)

const providerHTTP = "http"

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	BaseURL          string
	Token            string
	Timeout          time.Duration
	RateLimit        float64 // requests per second, 0 disables throttling
	RateBurst        int
	BreakerThreshold int
	BreakerReset     time.Duration
	HTTPClient       *http.Client
}

// HTTPProvider reads transcript indexes from a platform REST API:
//
//	GET {base}/videos/{videoID}/transcripts -> {"transcripts":[{lang,label,url}]}
type HTTPProvider struct {
	base    *url.URL
	token   string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// NewHTTPProvider validates cfg and builds the provider.
func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid platform base url %q", cfg.BaseURL)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpx.NewClient(cfg.Timeout, httpx.WithTracing("videoplatform"))
	}
	p := &HTTPProvider{
		base:   u,
		token:  cfg.Token,
		client: client,
		breaker: resilience.NewCircuitBreaker("videoplatform", cfg.BreakerThreshold, cfg.BreakerReset,
			resilience.WithFailureClassifier(isPlatformFailure)),
		logger: xlog.WithComponent("videoplatform").With().Str(xlog.FieldProvider, providerHTTP).Logger(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return p, nil
}

// Name implements Provider.
func (p *HTTPProvider) Name() string { return providerHTTP }

// ListTranscripts implements Provider.
func (p *HTTPProvider) ListTranscripts(ctx context.Context, videoID string) (model.PlatformIndex, error) {
	endpoint := p.base.JoinPath("videos", url.PathEscape(videoID), "transcripts")

	var body struct {
		Transcripts []catalogEntry `json:"transcripts"`
	}
	start := time.Now()
	err := p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		raw, err := p.get(ctx, endpoint.String(), ErrVideoNotFound)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return fmt.Errorf("%w: decode transcript list: %v", ErrUpstream, err)
		}
		return nil
	})
	metrics.ObservePlatformFetch(providerHTTP, "list", err, time.Since(start))
	if err != nil {
		return model.PlatformIndex{}, err
	}

	idx := indexFromEntries(body.Transcripts)
	p.logger.Debug().
		Str(xlog.FieldEvent, "platform.index_fetched").
		Str(xlog.FieldVideoID, videoID).
		Int("languages", idx.Len()).
		Msg("fetched transcript index")
	return idx, nil
}

// DownloadTranscript implements Provider. Relative urls resolve against the
// base url.
func (p *HTTPProvider) DownloadTranscript(ctx context.Context, rawURL, lang string) ([]byte, error) {
	ref, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		return nil, fmt.Errorf("%w: invalid transcript url %q", ErrTranscriptNotFound, rawURL)
	}
	target := p.base.ResolveReference(ref)

	var out []byte
	start := time.Now()
	err = p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		out, err = p.get(ctx, target.String(), ErrTranscriptNotFound)
		return err
	})
	metrics.ObservePlatformFetch(providerHTTP, "download", err, time.Since(start))
	if err != nil {
		p.logger.Warn().Err(err).
			Str(xlog.FieldEvent, "platform.download_failed").
			Str(xlog.FieldLang, lang).
			Msg("transcript download failed")
		return nil, err
	}
	return out, nil
}

func (p *HTTPProvider) get(ctx context.Context, target string, notFound error) ([]byte, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/vtt, application/x-subrip, */*")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if len(raw) > maxTranscriptBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrUpstream, maxTranscriptBytes)
	}
	return raw, nil
}
