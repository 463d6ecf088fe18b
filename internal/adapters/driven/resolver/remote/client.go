// Package remote resolves legacy ids through the batched legacy mapping API.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

// Ensure Resolver implements the interface.
var _ driven.BatchResolver = (*Resolver)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the remote resolver.
type Config struct {
	// URL is the mapping endpoint (default: domain.DefaultRemoteURL).
	URL string

	// Token is an optional bearer token sent with every request.
	Token string

	// BatchSize is the maximum ids per request (default: domain.DefaultBatchSize).
	BatchSize int

	// BatchDelay is the pause between consecutive requests. Zero disables pacing.
	BatchDelay time.Duration

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// HTTPClient overrides the base transport client.
	HTTPClient *http.Client
}

// Resolver looks up legacy ids with chunked POST requests and caches the
// results for the lifetime of the resolver.
type Resolver struct {
	client    *http.Client
	url       string
	batchSize int
	limiter   *rate.Limiter

	mu    sync.RWMutex
	cache map[domain.IDKind]map[string]string
}

// mappingRequest is the API request format.
type mappingRequest struct {
	Type string  `json:"type"`
	IDs  []int64 `json:"ids"`
}

// mappingResult is one element of the API response array.
type mappingResult struct {
	Result string `json:"result"`
	Data   struct {
		Attributes struct {
			LegacyID int64  `json:"legacyId"`
			NewID    string `json:"newId"`
		} `json:"attributes"`
	} `json:"data"`
}

// NewResolver creates a new remote resolver.
func NewResolver(cfg Config) *Resolver {
	if cfg.URL == "" {
		cfg.URL = domain.DefaultRemoteURL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		base = &clone
	}
	client := base
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.Token,
			TokenType:   "Bearer",
		}))
	}
	client.Timeout = cfg.Timeout

	limit := rate.Inf
	if cfg.BatchDelay > 0 {
		limit = rate.Every(cfg.BatchDelay)
	}

	return &Resolver{
		client:    client,
		url:       cfg.URL,
		batchSize: cfg.BatchSize,
		limiter:   rate.NewLimiter(limit, 1),
		cache: map[domain.IDKind]map[string]string{
			domain.IDKindManga:   {},
			domain.IDKindChapter: {},
		},
	}
}

// ResolveMangaID looks up one legacy manga id, using the cache when possible.
func (r *Resolver) ResolveMangaID(ctx context.Context, legacyID string) (string, bool, error) {
	return r.resolveOne(ctx, domain.IDKindManga, legacyID)
}

// ResolveChapterID looks up one legacy chapter id, using the cache when possible.
func (r *Resolver) ResolveChapterID(ctx context.Context, legacyID string) (string, bool, error) {
	return r.resolveOne(ctx, domain.IDKindChapter, legacyID)
}

func (r *Resolver) resolveOne(ctx context.Context, kind domain.IDKind, legacyID string) (string, bool, error) {
	if newID, ok := r.cached(kind, legacyID); ok {
		return newID, true, nil
	}
	mapped, err := r.ResolveBatch(ctx, kind, []string{legacyID}, nil)
	if err != nil {
		return "", false, err
	}
	newID, ok := mapped[legacyID]
	return newID, ok, nil
}

// ResolveBatch resolves legacyIDs in chunks of at most BatchSize, pausing
// BatchDelay between requests. Ids that are not integers are never sent and
// never resolve. Any failed chunk fails the whole call.
func (r *Resolver) ResolveBatch(
	ctx context.Context,
	kind domain.IDKind,
	legacyIDs []string,
	onProgress driven.BatchProgressFunc,
) (map[string]string, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: id kind %q", domain.ErrInvalidInput, kind)
	}

	ids := make([]int64, 0, len(legacyIDs))
	for _, s := range legacyIDs {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}

	mapped := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += r.batchSize {
		end := min(start+r.batchSize, len(ids))

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		results, err := r.post(ctx, kind, ids[start:end])
		if err != nil {
			return nil, domain.NewResolutionError(kind, err)
		}
		for _, res := range results {
			if res.Data.Attributes.NewID == "" {
				continue
			}
			mapped[strconv.FormatInt(res.Data.Attributes.LegacyID, 10)] = res.Data.Attributes.NewID
		}

		logger.Debug("Resolved %s ids %d-%d of %d", kind, start+1, end, len(ids))
		if onProgress != nil {
			onProgress(float64(end) / float64(len(ids)))
		}
	}

	r.store(kind, mapped)
	return mapped, nil
}

// post sends one chunk and decodes the response.
func (r *Resolver) post(ctx context.Context, kind domain.IDKind, ids []int64) ([]mappingResult, error) {
	body, err := json.Marshal(mappingRequest{Type: kind.String(), IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mapping api error (status %d): %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var results []mappingResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return results, nil
}

func (r *Resolver) cached(kind domain.IDKind, legacyID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	newID, ok := r.cache[kind][legacyID]
	return newID, ok
}

func (r *Resolver) store(kind domain.IDKind, mapped map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range mapped {
		r.cache[kind][k] = v
	}
}
