// Package pagination reads list query parameters shared by every HoppyHub
// list endpoint: page, per_page, sort, order and q.
package pagination

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params holds list parameters extracted from the query string.
type Params struct {
	Page       int
	PerPage    int
	SortBy     string
	Descending bool
	Search     string
}

// DefaultParams returns page 1 of DefaultPerPage items, unsorted.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromRequest parses list parameters. sortable lists the accepted sort keys;
// the first one is the default. Invalid values are an InvalidInput error
// rather than being silently replaced.
func FromRequest(r *http.Request, sortable ...string) (Params, error) {
	q := r.URL.Query()
	p := DefaultParams()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Params{}, apperrors.InvalidInput("page must be a positive integer")
		}
		p.Page = n
	}

	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPerPage {
			return Params{}, apperrors.InvalidInput(fmt.Sprintf("per_page must be between 1 and %d", MaxPerPage))
		}
		p.PerPage = n
	}

	if len(sortable) > 0 {
		p.SortBy = sortable[0]
	}
	if v := q.Get("sort"); v != "" {
		if !slices.Contains(sortable, v) {
			return Params{}, apperrors.InvalidInput(fmt.Sprintf("sort must be one of %s", strings.Join(sortable, ", ")))
		}
		p.SortBy = v
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		p.Descending = true
	default:
		return Params{}, apperrors.InvalidInput("order must be asc or desc")
	}

	p.Search = strings.TrimSpace(q.Get("q"))
	return p, nil
}
