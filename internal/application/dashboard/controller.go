package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/erp/receivables/internal/domain/dashboard"
)

// ErrFetchInFlight is returned when a fetch for the current filters is already running
var ErrFetchInFlight = errors.New("dashboard: fetch already in flight")

// DefaultProximity is how many unseen rows may remain before more are loaded
const DefaultProximity = 10

// Fetcher runs one page request, usually QueryService.Query or an HTTP client
type Fetcher func(ctx context.Context, req QueryRequest) (*QueryResponse, error)

// ControllerState is a snapshot of the pagination state
type ControllerState struct {
	Page         int
	Loaded       int
	Total        int
	Exhausted    bool
	InFlight     bool
	Sequence     uint64
	StaleDropped int
}

// Controller drives paged loading of one dashboard view.
// Explicit page navigation and proximity loading share a single fetch path.
// Each fetch carries the sequence current at dispatch and only the newest
// dispatched fetch may apply its response.
type Controller struct {
	fetch     Fetcher
	perPage   int
	proximity int

	mu        sync.Mutex
	request   QueryRequest
	page      int
	loaded    int
	total     int
	exhausted bool
	inFlight  bool
	seq       uint64
	stale     int
	rows      []dashboard.Row
	groups    []dashboard.Group
	view      *dashboard.ViewState
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithProximity sets the proximity threshold for incremental loading
func WithProximity(rows int) ControllerOption {
	return func(c *Controller) {
		if rows >= 0 {
			c.proximity = rows
		}
	}
}

// NewController creates a controller fetching perPage rows at a time
func NewController(fetch Fetcher, perPage int, opts ...ControllerOption) *Controller {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	c := &Controller{
		fetch:     fetch,
		perPage:   perPage,
		proximity: DefaultProximity,
		view:      dashboard.NewViewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetFilters replaces the query, resets pagination and loads the first page.
// Collapse, expand and selection state is dropped; the sort carries over
// when req names none. A fetch still running for the previous filters
// becomes stale.
func (c *Controller) SetFilters(ctx context.Context, req QueryRequest) error {
	c.mu.Lock()
	if req.SortBy == "" {
		req.SortBy, req.SortDir = string(c.view.SortKey), string(c.view.SortDir)
	} else if key, dir, err := dashboard.ParseSort(req.SortBy, req.SortDir); err == nil {
		c.view.SetSort(key, dir)
	}
	c.request = req
	c.resetLocked()
	c.view.Reset()
	c.mu.Unlock()
	return c.load(ctx, 1, false)
}

// SetSort changes the active sort and reloads from the first page.
// Group and detail state is kept.
func (c *Controller) SetSort(ctx context.Context, key dashboard.SortKey, dir dashboard.SortDir) error {
	key, dir, err := dashboard.ParseSort(string(key), string(dir))
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.view.SetSort(key, dir)
	c.request.SortBy, c.request.SortDir = string(key), string(dir)
	c.resetLocked()
	c.mu.Unlock()
	return c.load(ctx, 1, false)
}

func (c *Controller) resetLocked() {
	c.page, c.loaded, c.total = 0, 0, 0
	c.exhausted, c.inFlight = false, false
	c.rows, c.groups = nil, nil
}

// GoToPage replaces the loaded rows with page
func (c *Controller) GoToPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	return c.load(ctx, page, false)
}

// Near signals that the row at index is visible. When few unseen rows remain
// the next page is appended. It reports whether a fetch was made.
func (c *Controller) Near(ctx context.Context, index int) (bool, error) {
	c.mu.Lock()
	if c.exhausted || c.inFlight || c.loaded-index > c.proximity {
		c.mu.Unlock()
		return false, nil
	}
	next := c.page + 1
	c.mu.Unlock()

	if err := c.load(ctx, next, true); err != nil {
		if errors.Is(err, ErrFetchInFlight) {
			return false, nil
		}
		return true, err
	}
	return true, nil
}

func (c *Controller) load(ctx context.Context, page int, appendRows bool) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrFetchInFlight
	}
	c.inFlight = true
	c.seq++
	seq := c.seq
	req := c.request
	req.Page = page
	req.PerPage = c.perPage
	c.mu.Unlock()

	resp, err := c.fetch(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.stale++
		return nil
	}
	c.inFlight = false
	if err != nil {
		return err
	}

	if appendRows {
		c.rows = append(c.rows, resp.Rows...)
		c.loaded += len(resp.Rows)
		// server groups cover only the fetched page
		c.groups = dashboard.MergeGroups(c.groups, resp.Groups)
	} else {
		c.rows = append([]dashboard.Row(nil), resp.Rows...)
		c.loaded = (page-1)*c.perPage + len(resp.Rows)
		c.groups = dashboard.CloneGroups(resp.Groups)
	}
	c.page = page
	c.total = resp.Total
	c.view.Apply(c.groups)
	c.exhausted = len(resp.Rows) < c.perPage || c.loaded >= c.total
	return nil
}

// State returns a snapshot of the pagination state
func (c *Controller) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ControllerState{
		Page:         c.page,
		Loaded:       c.loaded,
		Total:        c.total,
		Exhausted:    c.exhausted,
		InFlight:     c.inFlight,
		Sequence:     c.seq,
		StaleDropped: c.stale,
	}
}

// Rows returns the loaded rows
func (c *Controller) Rows() []dashboard.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]dashboard.Row(nil), c.rows...)
}

// Groups returns a copy of the groups over the loaded rows with collapse flags applied
func (c *Controller) Groups() []dashboard.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dashboard.CloneGroups(c.groups)
}

// View returns the view state threaded through this controller
func (c *Controller) View() *dashboard.ViewState {
	return c.view
}

// LoadAll appends pages until the result set is exhausted
func (c *Controller) LoadAll(ctx context.Context) error {
	for {
		c.mu.Lock()
		done := c.exhausted
		next := c.page + 1
		c.mu.Unlock()
		if done {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.load(ctx, next, true); err != nil {
			return err
		}
	}
}
