// Package search indexes tenants in OpenSearch for full-text lookup by
// name, description and city in both languages.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

var ErrSearchFailed = errors.New("search: request failed")

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

type Indexer interface {
	Index(ctx context.Context, t directory.Tenant) error
	Remove(ctx context.Context, ref directory.TenantRef) error
}

type Searcher interface {
	Search(ctx context.Context, q string, kind directory.Kind, limit int) ([]Hit, error)
}

// Hit is one search result.
type Hit struct {
	ID     string         `json:"_id"`
	Kind   directory.Kind `json:"type"`
	Name   string         `json:"name"`
	NameAr string         `json:"nameAr,omitempty"`
	City   string         `json:"city,omitempty"`
	Score  float64        `json:"score"`
}

type document struct {
	Kind              directory.Kind `json:"kind"`
	Name              string         `json:"name"`
	NameAr            string         `json:"name_ar,omitempty"`
	City              string         `json:"city,omitempty"`
	Category          string         `json:"category,omitempty"`
	NameFolded        string         `json:"name_folded"`
	DescriptionFolded string         `json:"description_folded,omitempty"`
	CityFolded        string         `json:"city_folded,omitempty"`
}

func docID(ref directory.TenantRef) string {
	return string(ref.Kind) + "-" + ref.ID
}

// OpenSearch implements Indexer and Searcher.
type OpenSearch struct {
	transport opensearchapi.Transport
	index     string
}

// NewOpenSearch uses transport, usually an *opensearch.Client, against index.
func NewOpenSearch(transport opensearchapi.Transport, index string) *OpenSearch {
	if index == "" {
		index = "tenants"
	}
	return &OpenSearch{transport: transport, index: index}
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "kind": {"type": "keyword"},
      "category": {"type": "keyword"},
      "name": {"type": "text"},
      "name_ar": {"type": "text", "analyzer": "arabic"},
      "city": {"type": "text"},
      "name_folded": {"type": "text"},
      "description_folded": {"type": "text"},
      "city_folded": {"type": "text"}
    }
  }
}`

// EnsureIndex creates the index with its mapping if it does not exist.
func (o *OpenSearch) EnsureIndex(ctx context.Context) error {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{o.index}}.Do(ctx, o.transport)
	if err != nil {
		return errors.Join(ErrSearchFailed, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = opensearchapi.IndicesCreateRequest{
		Index: o.index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, o.transport)
	return check(res, err, "create index")
}

// Index upserts the tenant document. Only active tenants are searchable;
// anything else is removed from the index.
func (o *OpenSearch) Index(ctx context.Context, t directory.Tenant) error {
	if t.Status != directory.TenantActive {
		return o.Remove(ctx, t.Ref())
	}
	body, err := json.Marshal(document{
		Kind:              t.Kind,
		Name:              t.Name,
		NameAr:            t.NameAr,
		City:              t.City,
		Category:          t.CategoryCode,
		NameFolded:        Fold(t.Name + " " + t.NameAr),
		DescriptionFolded: Fold(t.Description),
		CityFolded:        Fold(t.City),
	})
	if err != nil {
		return fmt.Errorf("search: encode document: %w", err)
	}

	res, err := opensearchapi.IndexRequest{
		Index:      o.index,
		DocumentID: docID(t.Ref()),
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}.Do(ctx, o.transport)
	return check(res, err, "index tenant")
}

func (o *OpenSearch) Remove(ctx context.Context, ref directory.TenantRef) error {
	res, err := opensearchapi.DeleteRequest{
		Index:      o.index,
		DocumentID: docID(ref),
	}.Do(ctx, o.transport)
	if err == nil && res.StatusCode == 404 {
		res.Body.Close()
		return nil
	}
	return check(res, err, "remove tenant")
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Score  float64  `json:"_score"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search matches q against folded names, descriptions and cities. An empty
// query returns no hits.
func (o *OpenSearch) Search(ctx context.Context, q string, kind directory.Kind, limit int) ([]Hit, error) {
	folded := Fold(q)
	if folded == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	boolQuery := map[string]any{
		"must": []any{map[string]any{
			"multi_match": map[string]any{
				"query":     folded,
				"fields":    []string{"name_folded^3", "description_folded", "city_folded"},
				"fuzziness": "AUTO",
			},
		}},
	}
	if kind.IsTenant() {
		boolQuery["filter"] = []any{map[string]any{"term": map[string]any{"kind": kind}}}
	}
	body, err := json.Marshal(map[string]any{
		"size":  limit,
		"query": map[string]any{"bool": boolQuery},
	})
	if err != nil {
		return nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{o.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, o.transport)
	if err := checkStatus(res, err, "search"); err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.Join(ErrSearchFailed, err)
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		_, id, _ := strings.Cut(h.ID, "-")
		hits = append(hits, Hit{
			ID:     id,
			Kind:   h.Source.Kind,
			Name:   h.Source.Name,
			NameAr: h.Source.NameAr,
			City:   h.Source.City,
			Score:  h.Score,
		})
	}
	return hits, nil
}

// check closes the body and turns transport or status errors into
// ErrSearchFailed.
func check(res *opensearchapi.Response, err error, op string) error {
	if err := checkStatus(res, err, op); err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

func checkStatus(res *opensearchapi.Response, err error, op string) error {
	if err != nil {
		return errors.Join(ErrSearchFailed, fmt.Errorf("%s: %w", op, err))
	}
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		res.Body.Close()
		return errors.Join(ErrSearchFailed, fmt.Errorf("%s: %s: %s", op, res.Status(), bytes.TrimSpace(msg)))
	}
	return nil
}

// Nop is used when OpenSearch is not configured.
type Nop struct{}

func (Nop) Index(context.Context, directory.Tenant) error { return nil }

func (Nop) Remove(context.Context, directory.TenantRef) error { return nil }

func (Nop) Search(context.Context, string, directory.Kind, int) ([]Hit, error) { return []Hit{}, nil }
