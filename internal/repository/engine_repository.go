package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/olivere/elastic/v7"

	"github.com/Alkira-Consulting/skylight-web/internal/config"
	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

// EngineRepository defines the search-engine operations the dashboard
// consumes: a liveness probe, structured aggregation searches, and the
// tabular SQL endpoint.
type EngineRepository interface {
	// Info is the lightweight liveness probe; an error means the current
	// access token no longer works.
	Info(ctx context.Context) error

	// Search executes a structured aggregation request body against an
	// index pattern.
	Search(ctx context.Context, index string, body map[string]any) (*model.SearchResult, error)

	// SQL executes a tabular statement with an attached filter.
	SQL(ctx context.Context, query string, filter map[string]any) (*model.TabularResult, error)
}

// Factory builds a repository bound to one access token. Tokens are
// per-session and replaced on refresh, so the connection is rebuilt rather
// than mutated.
type Factory func(accessToken string) (EngineRepository, error)

// NewFactory returns a Factory against the configured engine URL.
func NewFactory(cfg *config.Config) Factory {
	engineURL := cfg.EngineURL
	return func(accessToken string) (EngineRepository, error) {
		es, err := elastic.NewClient(
			elastic.SetURL(engineURL),
			elastic.SetSniff(false),
			elastic.SetHealthcheck(false),
			elastic.SetHttpClient(&http.Client{
				Transport: &bearerTransport{token: accessToken, next: http.DefaultTransport},
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("build engine client: %w", err)
		}
		return &engineRepository{es: es}, nil
	}
}

// bearerTransport injects the session's bearer token on every request.
type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(clone)
}

type engineRepository struct {
	es *elastic.Client
}

func (r *engineRepository) Info(ctx context.Context) error {
	_, err := r.es.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: http.MethodGet,
		Path:   "/",
	})
	if err != nil {
		return fmt.Errorf("engine info: %w", err)
	}
	return nil
}

func (r *engineRepository) Search(ctx context.Context, index string, body map[string]any) (*model.SearchResult, error) {
	res, err := r.es.Search().Index(index).Source(body).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine search %s: %w", index, err)
	}

	out := &model.SearchResult{
		TotalHits:    res.TotalHits(),
		Aggregations: res.Aggregations,
	}
	if res.Hits != nil {
		for _, hit := range res.Hits.Hits {
			out.Hits = append(out.Hits, model.SearchHit{Source: hit.Source})
		}
	}
	return out, nil
}

func (r *engineRepository) SQL(ctx context.Context, query string, filter map[string]any) (*model.TabularResult, error) {
	body := map[string]any{"query": query}
	if filter != nil {
		body["filter"] = filter
	}

	res, err := r.es.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: http.MethodPost,
		Path:   "/_sql",
		Params: url.Values{"format": []string{"json"}},
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("engine sql: %w", err)
	}

	var out model.TabularResult
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return nil, fmt.Errorf("engine sql: decode response: %w", err)
	}
	return &out, nil
}
