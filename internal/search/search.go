// Package search indexes service orders for full-text lookup, with
// Meilisearch as the primary engine and a Postgres fallback.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID       string `json:"id"`
	Folio    string `json:"folio"`
	Title    string `json:"title"`
	Client   string `json:"client"`
	Engineer string `json:"engineer"`
	Status   string `json:"status"`
	Snippet  string `json:"snippet,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text   string
	Status string // empty = all
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// OrderRecord is the data we index for a service order.
type OrderRecord struct {
	ID       string `json:"id"`
	Folio    string `json:"folio"`
	Title    string `json:"title"`
	Client   string `json:"client"`
	Engineer string `json:"engineer"`
	Status   string `json:"status"`
	Location string `json:"location"`
}
