package domain

// Search defaults applied when trailing query arguments are absent.
const (
	DefaultSearchTop   = 100000
	DefaultSearchLimit = 100000
)

// SearchRequest is a full-text query sent to the search service.
type SearchRequest struct {
	Ticket    string `json:"ticket"`
	Query     string `json:"query"`
	Sort      string `json:"sort,omitempty"`
	Databases string `json:"databases,omitempty"`
	Top       int    `json:"top"`
	Limit     int    `json:"limit"`
	From      int    `json:"from"`
}

// NewSearchRequest returns a request with the default paging window.
func NewSearchRequest(ticket, query string) SearchRequest {
	return SearchRequest{
		Ticket: ticket,
		Query:  query,
		Top:    DefaultSearchTop,
		Limit:  DefaultSearchLimit,
	}
}

// SearchResult is passed through to scripts unchanged.
type SearchResult struct {
	Result     []string   `json:"result"`
	Count      int        `json:"count"`
	Estimated  int        `json:"estimated"`
	Processed  int        `json:"processed"`
	Cursor     int        `json:"cursor"`
	TotalTime  int64      `json:"total_time"`
	ResultCode ResultCode `json:"result_code"`
}

// Page applies From/Top/Limit to a full list of matching ids.
func (r SearchRequest) Page(ids []string) SearchResult {
	total := len(ids)
	limit := r.Limit
	if limit <= 0 || limit > total {
		limit = total
	}
	processed := ids[:limit]

	from := min(max(r.From, 0), len(processed))
	page := processed[from:]
	if r.Top > 0 && len(page) > r.Top {
		page = page[:r.Top]
	}

	return SearchResult{
		Result:     append([]string{}, page...),
		Count:      len(page),
		Estimated:  total,
		Processed:  len(processed),
		Cursor:     from + len(page),
		ResultCode: Ok,
	}
}
