// Package search keeps a full-text index of business plans in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizpilot/internal/common/logger"
	"bizpilot/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "business-plans"

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
	ErrIndexFailed       = errors.New("INDEX_FAILED")
)

// Document is the indexed form of a plan.
type Document struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	IdeaID      string   `json:"ideaId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	Content     string   `json:"content"`
	CreatedAt   string   `json:"createdAt"`
}

// Hit is one search match.
type Hit struct {
	Document
	Score float64 `json:"score"`
}

// Results is a page of hits.
type Results struct {
	Hits  []Hit `json:"hits"`
	Total int   `json:"total"`
	Took  int64 `json:"took"`
}

// PlanIndex writes and queries the plan index. A nil *PlanIndex is a
// disabled index: writes are skipped and searches return nothing.
type PlanIndex struct {
	client *elasticsearch.Client
	index  string
	log    logger.Logger
}

func NewPlanIndex(client *elasticsearch.Client, index string, log logger.Logger) *PlanIndex {
	if index == "" {
		index = DefaultIndex
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &PlanIndex{
		client: client,
		index:  index,
		log:    log.WithFields(map[string]interface{}{"component": "search", "index": index}),
	}
}

// NewDocument flattens a plan for indexing. Month titles, contents and
// milestones are folded into one searchable field.
func NewDocument(p models.BusinessPlan) Document {
	var content []string
	for _, m := range p.Months {
		content = append(content, m.Title, m.Content)
		content = append(content, m.Milestones...)
	}
	return Document{
		ID:          p.ID,
		UserID:      p.UserID,
		IdeaID:      p.IdeaID,
		Title:       p.Title,
		Description: p.Description,
		Type:        string(p.Type),
		Status:      string(p.Status),
		Tags:        p.Tags,
		Content:     strings.Join(content, "\n"),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

const planMapping = `{
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "userId": {"type": "keyword"},
      "ideaId": {"type": "keyword"},
      "title": {"type": "text"},
      "description": {"type": "text"},
      "type": {"type": "keyword"},
      "status": {"type": "keyword"},
      "tags": {"type": "keyword"},
      "content": {"type": "text"},
      "createdAt": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist.
func (x *PlanIndex) EnsureIndex(ctx context.Context) error {
	if x == nil {
		return nil
	}

	exists := esapi.IndicesExistsRequest{Index: []string{x.index}}
	res, err := exists.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexFailed, timeoutErr(ctx, err))
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	create := esapi.IndicesCreateRequest{Index: x.index, Body: strings.NewReader(planMapping)}
	res, err = create.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexFailed, timeoutErr(ctx, err))
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}

	x.log.Info("index created", nil)
	return nil
}

// IndexPlans upserts the plans in one bulk request.
func (x *PlanIndex) IndexPlans(ctx context.Context, plans []models.BusinessPlan) error {
	if x == nil || len(plans) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, p := range plans {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": x.index, "_id": p.ID}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("%w: %v", ErrIndexFailed, err)
		}
		if err := enc.Encode(NewDocument(p)); err != nil {
			return fmt.Errorf("%w: %v", ErrIndexFailed, err)
		}
	}

	req := esapi.BulkRequest{Body: &body, Refresh: "wait_for"}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexFailed, timeoutErr(ctx, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}

	var r struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return fmt.Errorf("%w: decode bulk response: %v", ErrIndexFailed, err)
	}
	if r.Errors {
		return fmt.Errorf("%w: bulk response reported item errors", ErrIndexFailed)
	}

	x.log.Debug("plans indexed", map[string]interface{}{"count": len(plans)})
	return nil
}

// DeletePlans removes the plans with the given ids. Missing documents are
// not an error.
func (x *PlanIndex) DeletePlans(ctx context.Context, ids []string) error {
	if x == nil || len(ids) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, id := range ids {
		meta := map[string]interface{}{"delete": map[string]interface{}{"_index": x.index, "_id": id}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("%w: %v", ErrIndexFailed, err)
		}
	}

	req := esapi.BulkRequest{Body: &body}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexFailed, timeoutErr(ctx, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}
	return nil
}

// Search runs a keyword query over the owner's plans.
func (x *PlanIndex) Search(ctx context.Context, userID, q string, page, limit int) (*Results, error) {
	if x == nil {
		return &Results{Hits: []Hit{}}, nil
	}
	page, limit = models.NormalizePage(page, limit)

	body, err := json.Marshal(buildPlanQuery(userID, q))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}

	from := models.Offset(page, limit)
	req := esapi.SearchRequest{
		Index: []string{x.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &limit,
	}

	res, err := req.Do(ctx, x.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchQueryFailed, timeoutErr(ctx, err))
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return &Results{Hits: []Hit{}}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.String())
	}

	var r struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Score  float64  `json:"_score"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	out := &Results{Hits: make([]Hit, 0, len(r.Hits.Hits)), Total: r.Hits.Total.Value, Took: r.Took}
	for _, h := range r.Hits.Hits {
		out.Hits = append(out.Hits, Hit{Document: h.Source, Score: h.Score})
	}
	return out, nil
}

func buildPlanQuery(userID, q string) map[string]interface{} {
	must := []interface{}{}
	if q = strings.TrimSpace(q); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"title^3", "description^2", "content", "tags"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"userId": userID}},
				},
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc", "unmapped_type": "date"}}},
	}
}

func timeoutErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrSearchTimeout, err)
	}
	return err
}
