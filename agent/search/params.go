package search

import (
	contractx "github.com/datagora/datagora/agent/contract"
)

type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortPrice     SortKey = "price"
	SortRating    SortKey = "rating"
	SortDate      SortKey = "date"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Params are the search inputs, read from the flat request payload.
type Params struct {
	Query     string
	Category  string
	Tags      []string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	SortBy    SortKey
	Page      int
	PageSize  int
}

// ParamsFromInput reads search parameters from the request payload,
// tolerating the numeric shapes JSON decoding produces and clamping
// pagination to sane bounds.
func ParamsFromInput(in contractx.Input) Params {
	p := Params{
		Query:    in.String("query"),
		Category: in.String("category"),
		Tags:     in.Strings("tags"),
		SortBy:   SortKey(in.String("sort_by")),
		Page:     1,
		PageSize: defaultPageSize,
	}
	if v, ok := in.Float64("min_price"); ok {
		p.MinPrice = &v
	}
	if v, ok := in.Float64("max_price"); ok {
		p.MaxPrice = &v
	}
	if v, ok := in.Float64("min_rating"); ok {
		p.MinRating = &v
	}
	if v, ok := in.Int64("page"); ok && v > 0 {
		p.Page = int(v)
	}
	if v, ok := in.Int64("page_size"); ok && v > 0 {
		p.PageSize = int(v)
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}
