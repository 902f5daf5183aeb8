package classsearch

// Criterion is one search filter. The catalog matches keyword criteria against
// course code, title and description.
type Criterion struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SearchOther carries the term (srcdb) a search is scoped to.
type SearchOther struct {
	SrcDB string `json:"srcdb"`
}

// SearchRequest is the body of a class-search "search" route call.
type SearchRequest struct {
	Other    SearchOther `json:"other"`
	Criteria []Criterion `json:"criteria"`
}

// NewKeywordSearch builds a single-keyword search scoped to term.
func NewKeywordSearch(term, keyword string) SearchRequest {
	return SearchRequest{
		Other:    SearchOther{SrcDB: term},
		Criteria: []Criterion{{Field: "keyword", Value: keyword}},
	}
}

// SearchResponse is the body of a successful search.
// Results are kept as free-form documents since the provider's fields are not stable.
// Fatal is set by the API for errors reported with a 200 status.
type SearchResponse struct {
	SrcDB   string           `json:"srcdb,omitempty"`
	Count   int              `json:"count"`
	Results []map[string]any `json:"results"`
	Fatal   string           `json:"fatal,omitempty"`
}
