package repository

import "go.mongodb.org/mongo-driver/mongo/options"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Page struct {
	Page  int
	Limit int
}

// Normalize clamps page to >= 1 and limit to [1, MaxLimit].
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) apply(opts *options.FindOptions) *options.FindOptions {
	p = p.Normalize()
	return opts.SetSkip(int64((p.Page - 1) * p.Limit)).SetLimit(int64(p.Limit))
}

// List is one page of results plus the total match count.
type List[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func newList[T any](items []T, total int64, p Page) *List[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return &List[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}
