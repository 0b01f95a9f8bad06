package apimodels

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginationSlice(t *testing.T) {
	cases := []struct {
		name     string
		page     Pagination
		n        int
		from, to int
	}{
		{"defaults", Pagination{}, 3, 0, 3},
		{"first page", Pagination{Page: 1, Limit: 2}, 5, 0, 2},
		{"last partial page", Pagination{Page: 3, Limit: 2}, 5, 4, 5},
		{"page after the end", Pagination{Page: 4, Limit: 2}, 5, 5, 5},
		{"exact end", Pagination{Page: 2, Limit: 5}, 5, 5, 5},
		{"empty", Pagination{Page: 1, Limit: 10}, 0, 0, 0},
		{"limit is capped", Pagination{Page: 2, Limit: 10000}, 1200, 500, 1000},
		{"huge page", Pagination{Page: 1<<62 + 1, Limit: 50}, 3, 3, 3},
		{"huge page and limit", Pagination{Page: 1<<62 + 1, Limit: 1 << 40}, 3, 3, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to := tc.page.Slice(tc.n)
			require.Equal(t, tc.from, from)
			require.Equal(t, tc.to, to)
			rows := make([]int, tc.n)
			require.NotPanics(t, func() { _ = rows[from:to] })
		})
	}
}
