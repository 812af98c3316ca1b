// Package search wraps the Elasticsearch indices used for full-text lookup of scholars and activities.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog"
)

const (
	IndexScholars   = "led_scholars"
	IndexActivities = "led_activities"
)

// ErrUnavailable is returned when the cluster answers with an error status.
var ErrUnavailable = errors.New("search backend unavailable")

var mappings = map[string]string{
	IndexScholars: `{"settings":{"number_of_shards":1},"mappings":{"properties":{
		"full_name":{"type":"text"},"email":{"type":"keyword"},"student_number":{"type":"keyword"},
		"program":{"type":"text"},"status":{"type":"keyword"},"university":{"type":"text"},
		"advisor_id":{"type":"long"},"user_id":{"type":"long"},"updated_at":{"type":"date"}
	}}}`,
	IndexActivities: `{"settings":{"number_of_shards":1},"mappings":{"properties":{
		"title":{"type":"text"},"description":{"type":"text"},"type":{"type":"keyword"},
		"status":{"type":"keyword"},"tags":{"type":"keyword"},"scholar_id":{"type":"long"},
		"updated_at":{"type":"date"}
	}}}`,
}

// ScholarDoc is the indexed view of a scholar.
type ScholarDoc struct {
	ID            uint      `json:"-"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	StudentNumber string    `json:"student_number"`
	Program       string    `json:"program"`
	Status        string    `json:"status"`
	University    string    `json:"university,omitempty"`
	AdvisorID     *uint     `json:"advisor_id,omitempty"`
	UserID        uint      `json:"user_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ActivityDoc is the indexed view of an activity.
type ActivityDoc struct {
	ID          uint      `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags"`
	ScholarID   uint      `json:"scholar_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Hit is one matching document id with its relevance score.
type Hit struct {
	Index string
	ID    uint
	Score float64
}

// Client indexes and queries LED documents.
type Client struct {
	es     *es.Client
	logger zerolog.Logger
}

// Connect creates a client for the cluster at url.
func Connect(url string, logger zerolog.Logger) (*Client, error) {
	client, err := es.NewClient(es.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: client, logger: logger.With().Str("component", "search").Logger()}, nil
}

// NewClient wraps an existing go-elasticsearch client.
func NewClient(client *es.Client, logger zerolog.Logger) *Client {
	return &Client{es: client, logger: logger.With().Str("component", "search").Logger()}
}

// EnsureIndexes creates missing indices with their mappings.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	for _, index := range []string{IndexScholars, IndexActivities} {
		if err := c.ensure(ctx, index, mappings[index]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) ensure(ctx context.Context, index, body string) error {
	exists, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := c.es.Indices.Create(index,
		c.es.Indices.Create.WithBody(strings.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}

// IndexScholar upserts a scholar document.
func (c *Client) IndexScholar(ctx context.Context, doc ScholarDoc) error {
	return c.put(ctx, IndexScholars, doc.ID, doc)
}

// IndexActivity upserts an activity document.
func (c *Client) IndexActivity(ctx context.Context, doc ActivityDoc) error {
	return c.put(ctx, IndexActivities, doc.ID, doc)
}

// DeleteActivity removes an activity document; a missing document is not an error.
func (c *Client) DeleteActivity(ctx context.Context, id uint) error {
	res, err := c.es.Delete(IndexActivities, strconv.FormatUint(uint64(id), 10), c.es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrUnavailable, res.Status())
	}
	return nil
}

func (c *Client) put(ctx context.Context, index string, id uint, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(strconv.FormatUint(uint64(id), 10)),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrUnavailable, res.Status())
	}
	return nil
}

// BulkScholars reindexes many scholars at once.
func (c *Client) BulkScholars(ctx context.Context, docs []ScholarDoc) error {
	items := make([]bulkItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, bulkItem{id: d.ID, doc: d})
	}
	return c.bulk(ctx, IndexScholars, items)
}

// BulkActivities reindexes many activities at once.
func (c *Client) BulkActivities(ctx context.Context, docs []ActivityDoc) error {
	items := make([]bulkItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, bulkItem{id: d.ID, doc: d})
	}
	return c.bulk(ctx, IndexActivities, items)
}

type bulkItem struct {
	id  uint
	doc any
}

func (c *Client) bulk(ctx context.Context, index string, items []bulkItem) error {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: c.es, Index: index, FlushBytes: 5 << 20, NumWorkers: 2,
	})
	if err != nil {
		return err
	}

	for _, item := range items {
		body, err := json.Marshal(item.doc)
		if err != nil {
			return err
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: strconv.FormatUint(uint64(item.id), 10),
			Body:       bytes.NewReader(body),
			OnFailure: func(_ context.Context, it esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				ev := c.logger.Warn().Str("index", index).Str("doc_id", it.DocumentID)
				if err != nil {
					ev = ev.Err(err)
				} else {
					ev = ev.Str("reason", res.Error.Reason)
				}
				ev.Msg("bulk index item failed")
			},
		})
		if err != nil {
			return err
		}
	}

	if err := bi.Close(ctx); err != nil {
		return err
	}
	if stats := bi.Stats(); stats.NumFailed > 0 {
		return fmt.Errorf("bulk index %s: %d documents failed", index, stats.NumFailed)
	}
	return nil
}

// Search runs a multi_match query against the given indices.
func (c *Client) Search(ctx context.Context, query string, indices []string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"full_name^3", "title^3", "email", "student_number", "program", "description", "tags"},
				"fuzziness": "AUTO",
				"lenient":   true,
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(indices...),
		c.es.Search.WithBody(bytes.NewReader(payload)),
		c.es.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, res.Status())
	}

	return decodeHits(res.Body)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Index string  `json:"_index"`
			ID    string  `json:"_id"`
			Score float64 `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeHits(r io.Reader) ([]Hit, error) {
	var parsed searchResponse
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Index: h.Index, ID: uint(id), Score: h.Score})
	}
	return hits, nil
}
