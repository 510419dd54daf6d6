package common

import "github.com/khanghh/alumnet/params"

// Pagination is the page descriptor returned with every paginated listing.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// PageRequest is a 1-based page request.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request into a valid page and limit.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = params.DefaultPageLimit
	}
	if p.Limit > params.MaxPageLimit {
		p.Limit = params.MaxPageLimit
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p PageRequest) Result(total int64) Pagination {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
	}
}
