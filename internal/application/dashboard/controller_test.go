package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/erp/receivables/internal/domain/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedSource serves n rows per keyword and counts fetches
type pagedSource struct {
	mu    sync.Mutex
	n     int
	calls int
}

func (p *pagedSource) fetch(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	start := (req.Page - 1) * req.PerPage
	var rows []dashboard.Row
	for i := start; i < start+req.PerPage && i < p.n; i++ {
		rows = append(rows, dashboard.Row{Key: fmt.Sprintf("%s-%d", req.Filters.Keyword, i)})
	}
	return &QueryResponse{Rows: rows, Total: p.n, Page: req.Page, PerPage: req.PerPage}, nil
}

func (p *pagedSource) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestController_PagesAndProximity(t *testing.T) {
	src := &pagedSource{n: 25}
	c := NewController(src.fetch, 10, WithProximity(3))
	ctx := context.Background()

	require.NoError(t, c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "k"}}))
	st := c.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 10, st.Loaded)
	assert.Equal(t, 25, st.Total)
	assert.False(t, st.Exhausted)

	fetched, err := c.Near(ctx, 2)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, 1, src.callCount())

	fetched, err = c.Near(ctx, 7)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, 20, c.State().Loaded)
	assert.Len(t, c.Rows(), 20)

	fetched, err = c.Near(ctx, 18)
	require.NoError(t, err)
	assert.True(t, fetched)
	st = c.State()
	assert.Equal(t, 25, st.Loaded)
	assert.True(t, st.Exhausted)

	fetched, err = c.Near(ctx, 24)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, 3, src.callCount())
	assert.Equal(t, "k-24", c.Rows()[24].Key)
}

func TestController_GoToPageReplacesRows(t *testing.T) {
	src := &pagedSource{n: 25}
	c := NewController(src.fetch, 10)
	ctx := context.Background()

	require.NoError(t, c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "k"}}))
	require.NoError(t, c.GoToPage(ctx, 2))

	rows := c.Rows()
	require.Len(t, rows, 10)
	assert.Equal(t, "k-10", rows[0].Key)
	assert.Equal(t, 20, c.State().Loaded)
	assert.Equal(t, 2, c.State().Page)

	require.NoError(t, c.GoToPage(ctx, 3))
	assert.True(t, c.State().Exhausted)
}

func TestController_LoadAll(t *testing.T) {
	src := &pagedSource{n: 25}
	c := NewController(src.fetch, 10)
	ctx := context.Background()

	require.NoError(t, c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "all"}}))
	require.NoError(t, c.LoadAll(ctx))
	rows := c.Rows()
	require.Len(t, rows, 25)
	for i, r := range rows {
		assert.Equal(t, fmt.Sprintf("all-%d", i), r.Key)
	}
	assert.Equal(t, 3, src.callCount())

	// an exact multiple of the page size still terminates
	src = &pagedSource{n: 20}
	c = NewController(src.fetch, 10)
	require.NoError(t, c.SetFilters(ctx, QueryRequest{}))
	require.NoError(t, c.LoadAll(ctx))
	assert.Len(t, c.Rows(), 20)
	assert.Equal(t, 2, src.callCount())
}

func TestController_StaleResponseIsDropped(t *testing.T) {
	src := &pagedSource{n: 5}
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
		if req.Filters.Keyword == "slow" {
			close(started)
			<-release
		}
		return src.fetch(ctx, req)
	}
	c := NewController(fetch, 10)
	ctx := context.Background()

	slowDone := make(chan error, 1)
	go func() { slowDone <- c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "slow"}}) }()
	<-started

	require.NoError(t, c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "fast"}}))
	close(release)
	require.NoError(t, <-slowDone)

	st := c.State()
	assert.Equal(t, 1, st.StaleDropped)
	assert.Equal(t, uint64(2), st.Sequence)
	rows := c.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, "fast-0", rows[0].Key)
}

func TestController_InFlightGuard(t *testing.T) {
	src := &pagedSource{n: 30}
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	fetch := func(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
		if req.Page == 2 {
			started <- struct{}{}
			<-release
		}
		return src.fetch(ctx, req)
	}
	c := NewController(fetch, 10)
	ctx := context.Background()
	require.NoError(t, c.SetFilters(ctx, QueryRequest{}))

	done := make(chan error, 1)
	go func() { done <- c.GoToPage(ctx, 2) }()
	<-started

	assert.True(t, c.State().InFlight)
	assert.ErrorIs(t, c.GoToPage(ctx, 3), ErrFetchInFlight)
	fetched, err := c.Near(ctx, 9)
	require.NoError(t, err)
	assert.False(t, fetched)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.State().InFlight)
	assert.Equal(t, 2, c.State().Page)
}

func TestController_FetchErrorKeepsRows(t *testing.T) {
	src := &pagedSource{n: 30}
	boom := errors.New("boom")
	fail := false
	fetch := func(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
		if fail {
			return nil, boom
		}
		return src.fetch(ctx, req)
	}
	c := NewController(fetch, 10)
	ctx := context.Background()
	require.NoError(t, c.SetFilters(ctx, QueryRequest{}))

	fail = true
	fetched, err := c.Near(ctx, 9)
	assert.True(t, fetched)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, c.Rows(), 10)
	assert.False(t, c.State().InFlight)

	fail = false
	_, err = c.Near(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, c.Rows(), 20)
}

func TestController_SelectionClearedOnFilterChange(t *testing.T) {
	src := &pagedSource{n: 3}
	c := NewController(src.fetch, 10)
	ctx := context.Background()
	require.NoError(t, c.SetFilters(ctx, QueryRequest{}))

	c.View().ToggleSelect("-0")
	assert.Equal(t, 1, c.View().Selected())

	require.NoError(t, c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "x"}}))
	assert.Equal(t, 0, c.View().Selected())
}

// groupedFetch serves n rows per page, all in one sales-owner group built from that page only
func groupedFetch(n int) Fetcher {
	src := &pagedSource{n: n}
	return func(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
		resp, err := src.fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		g := dashboard.Group{
			Dimension: dashboard.DimensionSalesOwner,
			Key:       "alice",
			Label:     "Alice",
			Path:      dashboard.GroupPath("", dashboard.DimensionSalesOwner, "alice"),
			Stats:     dashboard.Stats{Count: n},
			Exact:     true,
		}
		for _, r := range resp.Rows {
			g.RowKeys = append(g.RowKeys, r.Key)
		}
		resp.Groups = []dashboard.Group{g}
		return resp, nil
	}
}

func TestController_GroupsCoverAppendedPages(t *testing.T) {
	c := NewController(groupedFetch(25), 10, WithProximity(3))
	ctx := context.Background()
	require.NoError(t, c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "r"}, GroupBy: []string{"sales-owner"}}))

	fetched, err := c.Near(ctx, 8)
	require.NoError(t, err)
	require.True(t, fetched)

	groups := c.Groups()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].RowKeys, 20)
	assert.Equal(t, "r-0", groups[0].RowKeys[0])
	assert.Equal(t, "r-19", groups[0].RowKeys[19])
	assert.True(t, groups[0].Exact)
	assert.Equal(t, 25, groups[0].Stats.Count)

	// a page jump replaces the groups along with the rows
	require.NoError(t, c.GoToPage(ctx, 3))
	groups = c.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"r-20", "r-21", "r-22", "r-23", "r-24"}, groups[0].RowKeys)
}

func TestController_GroupsReturnsCopy(t *testing.T) {
	c := NewController(groupedFetch(5), 10)
	ctx := context.Background()
	require.NoError(t, c.SetFilters(ctx, QueryRequest{}))

	groups := c.Groups()
	require.Len(t, groups, 1)
	groups[0].Collapsed = true
	groups[0].RowKeys[0] = "changed"

	again := c.Groups()
	assert.False(t, again[0].Collapsed)
	assert.Equal(t, "-0", again[0].RowKeys[0])
}

func TestController_CollapseResetOnFilterChange(t *testing.T) {
	c := NewController(groupedFetch(5), 10)
	ctx := context.Background()
	require.NoError(t, c.SetFilters(ctx, QueryRequest{}))

	path := c.Groups()[0].Path
	c.View().SetCollapsed(path, true)
	c.View().ToggleDetail("-1")
	require.NoError(t, c.GoToPage(ctx, 1))
	assert.True(t, c.Groups()[0].Collapsed)

	require.NoError(t, c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "x"}}))
	assert.False(t, c.Groups()[0].Collapsed)
	assert.False(t, c.View().IsExpanded("-1"))
}

func TestController_SetSortReloadsFirstPage(t *testing.T) {
	src := &pagedSource{n: 25}
	var mu sync.Mutex
	var seen []QueryRequest
	fetch := func(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		return src.fetch(ctx, req)
	}
	c := NewController(fetch, 10)
	ctx := context.Background()

	require.NoError(t, c.SetFilters(ctx, QueryRequest{}))
	assert.Equal(t, "creation-time", seen[0].SortBy)
	assert.Equal(t, "desc", seen[0].SortDir)

	require.NoError(t, c.GoToPage(ctx, 2))
	require.NoError(t, c.SetSort(ctx, dashboard.SortByStatusSeverity, dashboard.SortAsc))

	last := seen[len(seen)-1]
	assert.Equal(t, "status-severity", last.SortBy)
	assert.Equal(t, "asc", last.SortDir)
	assert.Equal(t, 1, last.Page)
	st := c.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 10, st.Loaded)
	assert.Equal(t, dashboard.SortByStatusSeverity, c.View().SortKey)

	// the chosen sort survives a filter change that names none
	require.NoError(t, c.SetFilters(ctx, QueryRequest{Filters: QueryFilters{Keyword: "k"}}))
	assert.Equal(t, "status-severity", seen[len(seen)-1].SortBy)

	// a sort named in the request becomes the view's sort
	require.NoError(t, c.SetFilters(ctx, QueryRequest{SortBy: "receipt-time", SortDir: "asc"}))
	assert.Equal(t, dashboard.SortByReceiptTime, c.View().SortKey)

	err := c.SetSort(ctx, "amount", dashboard.SortAsc)
	assert.Error(t, err)
	assert.Equal(t, dashboard.SortByReceiptTime, c.View().SortKey)
}
