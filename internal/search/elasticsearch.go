package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"parkhub/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// LotIndex maintains a searchable catalog of parking lots (name and location
// full-text search for the lot list endpoint). Postgres remains the source of
// truth; the index is refreshed on every lot create/update.
type LotIndex struct {
	client *elasticsearch.Client
	config Config
}

type Config struct {
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}

func NewLotIndex(cfg Config) (*LotIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	idx := &LotIndex{client: es, config: cfg}

	if err := idx.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return idx, nil
}

func (idx *LotIndex) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{idx.config.Index},
	}

	res, err := req.Do(ctx, idx.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", idx.config.Index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type": "text",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"location": map[string]interface{}{
					"type": "text",
				},
				"total_spaces":     map[string]interface{}{"type": "integer"},
				"available_spaces": map[string]interface{}{"type": "integer"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: idx.config.Index,
		Body:  bytes.NewReader(body),
	}

	createRes, err := createReq.Do(ctx, idx.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("index creation returned status %s", createRes.Status())
	}

	slog.Info("Created Elasticsearch index", "index", idx.config.Index)
	return nil
}

// IndexLot upserts a lot document.
func (idx *LotIndex) IndexLot(ctx context.Context, lot *models.ParkingLot) error {
	doc := map[string]interface{}{
		"name":             lot.Name,
		"location":         lot.Location,
		"total_spaces":     lot.TotalSpaces,
		"available_spaces": lot.AvailableSpaces,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal lot document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      idx.config.Index,
		DocumentID: lot.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, idx.client)
	if err != nil {
		return fmt.Errorf("failed to index lot: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing lot %s returned status %s", lot.ID, res.Status())
	}

	return nil
}

// DeleteLot removes a lot document. Missing documents are not an error.
func (idx *LotIndex) DeleteLot(ctx context.Context, lotID string) error {
	req := esapi.DeleteRequest{
		Index:      idx.config.Index,
		DocumentID: lotID,
	}

	res, err := req.Do(ctx, idx.client)
	if err != nil {
		return fmt.Errorf("failed to delete lot from index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("deleting lot %s returned status %s", lotID, res.Status())
	}

	return nil
}

// SearchLots returns the IDs of lots matching the query, best match first.
func (idx *LotIndex) SearchLots(ctx context.Context, query string, size int) ([]string, error) {
	if size <= 0 {
		size = 20
	}

	searchBody := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "location"},
			},
		},
	}

	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{idx.config.Index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, idx.client)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search returned status %s", res.Status())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}

	return ids, nil
}
