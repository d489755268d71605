package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/skilltier/internal/domain/model"
	"github.com/okian/skilltier/internal/domain/tier"
)

// listFilter reads skip, take, search and tier from the query string.
func listFilter(r *http.Request, op string) (model.ListFilter, error) {
	q := r.URL.Query()
	var f model.ListFilter
	var err error
	if f.Skip, err = queryInt(q.Get("skip"), "skip"); err != nil {
		return f, WrapKind(op, ErrBadRequest, err)
	}
	if f.Take, err = queryInt(q.Get("take"), "take"); err != nil {
		return f, WrapKind(op, ErrBadRequest, err)
	}
	if f.Skip < 0 || f.Take < 0 {
		return f, WrapKind(op, ErrBadRequest, fmt.Errorf("skip and take must be >= 0"))
	}
	f.Search = strings.TrimSpace(q.Get("search"))
	if raw := q.Get("tier"); raw != "" {
		t, err := strconv.Atoi(raw)
		if err != nil {
			return f, WrapKind(op, ErrBadRequest, fmt.Errorf("tier must be an integer"))
		}
		if _, ok := tier.Lookup(t); !ok {
			return f, WrapKind(op, ErrBadRequest, fmt.Errorf("tier must be between %d and %d", tier.EntryLevel, tier.Master))
		}
		f.Tier = &t
	}
	return f, nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
