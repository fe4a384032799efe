// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package client talks to the Software Heritage Web API.
//
// The client exposes two families of queries: batched "is this
// identifier known" lookups and provenance lookups ("whereare",
// "whereis"). It chunks arbitrarily large inputs below the server's
// batch ceiling, runs chunks concurrently, retries transient failures
// within a bounded budget, and honors the server's advertised rate
// limit through a shared adaptive throttling schedule.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SoftwareHeritage/swh-scanner/pkg/swhid"
)

// QueryLimit is the server-enforced ceiling on identifiers per call to
// the known endpoint.
const QueryLimit = 1000

// MaxRetry is the per-batch retry budget.
const MaxRetry = 10

// MaxWhereAreBatch is the ceiling on identifiers per whereare call.
// The server suffered at 1000 (503/504 replies); bump again when the
// endpoint gets more reliable.
const MaxWhereAreBatch = 100

// MaxConcurrentProvenanceQueries bounds in-flight whereare calls.
const MaxConcurrentProvenanceQueries = 5

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 60 * time.Second

// defaultFanout bounds concurrent known chunks per call.
const defaultFanout = 10

const (
	knownEndpoint    = "known/"
	whereAreEndpoint = "provenance/whereare/"
	whereIsEndpoint  = "provenance/whereis/"
)

// Config configures a Client.
type Config struct {
	// APIURL is the archive API root, e.g.
	// "https://archive.softwareheritage.org/api/1/".
	APIURL string

	// BearerToken, when set, is sent as an Authorization header.
	// Provenance endpoints require it.
	BearerToken string

	// Timeout is the per-request timeout; DefaultTimeout when zero.
	Timeout time.Duration

	// Fanout bounds concurrent chunk dispatch within one Known call.
	Fanout int

	Logger *slog.Logger
}

// Client is a batched, rate-limit-aware archive client. It is safe for
// concurrent use; all requests share one throttling schedule.
type Client struct {
	apiURL  string
	token   string
	httpc   *http.Client
	limiter *rateLimiter
	fanout  int
	logger  *slog.Logger
}

// New creates a Client. The API URL is normalized to end in "/".
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	fanout := cfg.Fanout
	if fanout <= 0 {
		fanout = defaultFanout
	}
	apiURL := cfg.APIURL
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	return &Client{
		apiURL:  apiURL,
		token:   cfg.BearerToken,
		httpc:   &http.Client{Timeout: timeout},
		limiter: newRateLimiter(logger),
		fanout:  fanout,
		logger:  logger,
	}
}

// knownValue is the per-identifier payload of a known reply.
type knownValue struct {
	Known bool `json:"known"`
}

// Known reports, for each input identifier, whether the archive holds
// the corresponding object. Inputs of any size are accepted: the call
// chunks them into batches of at most QueryLimit and dispatches the
// chunks concurrently. The result covers every input.
func (c *Client) Known(ctx context.Context, ids []swhid.ID) (map[swhid.ID]bool, error) {
	result := make(map[swhid.ID]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	if len(ids) <= QueryLimit {
		return c.knownBatch(ctx, ids, result)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fanout)
	for start := 0; start < len(ids); start += QueryLimit {
		chunk := ids[start:min(start+QueryLimit, len(ids))]
		g.Go(func() error {
			part := make(map[swhid.ID]bool, len(chunk))
			if _, err := c.knownBatch(gctx, chunk, part); err != nil {
				return err
			}
			mu.Lock()
			for id, known := range part {
				result[id] = known
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) knownBatch(ctx context.Context, ids []swhid.ID, result map[swhid.ID]bool) (map[swhid.ID]bool, error) {
	texts := make([]string, len(ids))
	for i, id := range ids {
		texts[i] = id.String()
	}
	recordKnownBatch()

	var reply map[string]knownValue
	if err := c.post(ctx, knownEndpoint, texts, &reply); err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = reply[id.String()].Known
	}
	return result, nil
}

// WhereAre returns provenance for up to MaxWhereAreBatch identifiers,
// one entry per input, nil where the archive has no answer. Larger
// inputs are an invariant violation and rejected outright.
func (c *Client) WhereAre(ctx context.Context, ids []swhid.ID) ([]*swhid.Qualified, error) {
	if len(ids) > MaxWhereAreBatch {
		return nil, fmt.Errorf("whereare batch of %d exceeds the %d ceiling", len(ids), MaxWhereAreBatch)
	}
	texts := make([]string, len(ids))
	for i, id := range ids {
		texts[i] = id.String()
	}
	recordWhereAre()

	var reply []*string
	if err := c.post(ctx, whereAreEndpoint, texts, &reply); err != nil {
		return nil, err
	}
	if len(reply) != len(ids) {
		return nil, fmt.Errorf("whereare replied %d entries for %d identifiers", len(reply), len(ids))
	}

	out := make([]*swhid.Qualified, len(ids))
	for i, text := range reply {
		if text == nil {
			continue
		}
		q, err := swhid.ParseQualified(*text)
		if err != nil {
			// Malformed entry: fatal for this item only.
			c.logger.Warn("client.whereare.badid", "text", *text, "err", err)
			continue
		}
		out[i] = q
	}
	return out, nil
}

// WhereIs is the single-shot provenance lookup, used on demand. It
// returns nil without error when the archive has no answer.
func (c *Client) WhereIs(ctx context.Context, id swhid.ID) (*swhid.Qualified, error) {
	endpoint := whereIsEndpoint + id.String() + "/"
	body, status, err := c.roundTrip(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var text *string
	if err := json.Unmarshal(body, &text); err != nil {
		return nil, fmt.Errorf("whereis reply: %w", err)
	}
	if text == nil {
		return nil, nil
	}
	return swhid.ParseQualified(*text)
}

// post runs one POST with the retry and throttling schedule and
// decodes the JSON reply into out.
func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, _, err := c.roundTrip(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s reply: %w", endpoint, err)
	}
	return nil
}

// roundTrip issues one logical request: block for the current throttle
// interval, send, update the schedule from the reply, and retry
// transient failures within the budget. A 413 exits immediately: the
// client never builds such a batch, so the invariant is already
// broken. A 401/403 on a provenance endpoint means the account has no
// provenance access and is not retried either.
func (c *Client) roundTrip(ctx context.Context, method, endpoint string, payload any) ([]byte, int, error) {
	url := c.apiURL + endpoint

	var reqBody []byte
	if payload != nil {
		var err error
		if reqBody, err = json.Marshal(payload); err != nil {
			return nil, 0, err
		}
	}

	retry := MaxRetry
	for {
		if err := c.limiter.wait(ctx); err != nil {
			return nil, 0, err
		}

		body, status, header, err := c.send(ctx, method, url, reqBody)
		switch {
		case err != nil:
			// Transport failure (includes timeouts): retry path.
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			recordRequestError()
			c.limiter.markFailure(limitInfo{})
			retry--
			if retry <= 0 {
				return nil, 0, fmt.Errorf("request to %s: %w", endpoint, err)
			}
		case status == http.StatusOK:
			c.limiter.markSuccess(parseLimitHeaders(header))
			return body, status, nil
		case status == http.StatusNotFound && method == http.MethodGet:
			// Single-shot lookups treat 404 as "no answer".
			c.limiter.markSuccess(parseLimitHeaders(header))
			return nil, status, nil
		case isProvenanceEndpoint(endpoint) && (status == http.StatusUnauthorized || status == http.StatusForbidden):
			recordRequestError()
			return nil, status, &NoProvenanceAccessError{Status: status, Endpoint: endpoint}
		default:
			recordRequestError()
			c.limiter.markFailure(parseLimitHeaders(header))
			retry--
			if retry <= 0 || status == http.StatusRequestEntityTooLarge {
				return nil, status, &HTTPError{Status: status, Reason: http.StatusText(status), Endpoint: endpoint}
			}
		}
		recordRetry()
		c.logger.Debug("client.retry", "endpoint", endpoint, "left", retry)
	}
}

// send performs a single HTTP exchange and drains the body.
func (c *Client) send(ctx context.Context, method, url string, reqBody []byte) ([]byte, int, http.Header, error) {
	var reader io.Reader
	if reqBody != nil {
		reader = bytes.NewReader(reqBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	recordRequest(time.Since(start))
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, err
	}
	return body, resp.StatusCode, resp.Header, nil
}

func isProvenanceEndpoint(endpoint string) bool {
	return strings.HasPrefix(endpoint, "provenance/")
}
