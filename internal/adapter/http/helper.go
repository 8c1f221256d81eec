package http

import (
	"strconv"
	"strings"

	"mediatheque/internal/domain/query"

	"github.com/labstack/echo/v4"
)

// ---- helpers ----

// Page is the list envelope shared by every collection endpoint.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int64 `json:"total_pages"`
}

type pageParams struct {
	Page    int
	PerPage int
}

// readPage parses page/per_page, falling back to the defaults on junk input.
func readPage(c echo.Context) pageParams {
	p := pageParams{Page: 1, PerPage: query.DefaultPerPage}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, query.MaxPerPage)
	}
	return p
}

func newPage[T any](items []T, total int64, p pageParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Data:       items,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: query.TotalPages(total, p.PerPage),
	}
}

// queryBool returns nil when the parameter is absent.
func queryBool(c echo.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

type message[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}
