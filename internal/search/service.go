package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to the
// Postgres scan.
type Service struct {
	meili *Meili
	pg    *PgLike
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, pg *PgLike) *Service {
	return &Service{meili: meili, pg: pg}
}

// Search tries Meilisearch if healthy, otherwise falls back to Postgres.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to postgres: %v", err)
	}

	results, total, err := s.pg.Search(q)
	if err != nil {
		log.Printf("search: postgres fallback error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexOrder indexes an order (fire-and-forget to Meilisearch).
func (s *Service) IndexOrder(record OrderRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexOrder(record); err != nil {
			log.Printf("search: index order %s: %v", record.ID, err)
		}
	}()
}

// DeleteOrder removes an order from the search index (fire-and-forget).
func (s *Service) DeleteOrder(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteOrder(id); err != nil {
			log.Printf("search: delete order %s: %v", id, err)
		}
	}()
}

// ReindexAllFromPG reindexes every order from PostgreSQL into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pg == nil {
		return
	}
	records, err := s.pg.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexOrders(records); err != nil {
		log.Printf("search: reindex orders: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
