// Package fetch orchestrates listing: it invokes the kind's list operation
// page by page, projects items into display rows, and applies the filter.
package fetch

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/spyglass-dev/spyglass/dispatch"
	"github.com/spyglass-dev/spyglass/extract"
	"github.com/spyglass-dev/spyglass/registry"
)

// defaultPageCap bounds paginated fetches; hitting it yields Truncated,
// never an infinite loop against an unbounded cursor chain.
const defaultPageCap = 50

// State is the completion state of a fetch.
type State int

const (
	Done State = iota
	Truncated
)

func (s State) String() string {
	if s == Truncated {
		return "truncated"
	}
	return "done"
}

// Cell is one formatted column value.
type Cell struct {
	Label string
	Value string
}

// Row is one resource projected for display. Raw retains the item's
// unparsed value for the detail view and action bindings.
type Row struct {
	Kind  string
	Key   string
	Cells []Cell
	Raw   any
}

// Cell returns the value for a column label.
func (r Row) Cell(label string) (string, bool) {
	for _, c := range r.Cells {
		if c.Label == label {
			return c.Value, true
		}
	}
	return "", false
}

// Request describes one fetch intent.
type Request struct {
	Kind     string
	Profile  string
	Region   string
	Endpoint string
	Filter   Filter
	Epoch    uint64
}

// Result carries the rows gathered so far plus the completion state. Err
// may be set alongside rows: a pagination failure mid-sequence preserves
// the pages already retrieved.
type Result struct {
	Epoch uint64
	Rows  []Row
	State State
	Err   error
}

// Fetcher lists resources through the dispatch layer.
type Fetcher struct {
	reg     *registry.Registry
	disp    *dispatch.Dispatcher
	logger  zerolog.Logger
	pageCap int
}

// New creates a Fetcher.
func New(reg *registry.Registry, disp *dispatch.Dispatcher, logger zerolog.Logger) *Fetcher {
	return &Fetcher{reg: reg, disp: disp, logger: logger, pageCap: defaultPageCap}
}

// Page performs a single-page fetch.
func (f *Fetcher) Page(ctx context.Context, req Request) Result {
	kind, err := f.reg.Lookup(req.Kind)
	if err != nil {
		return Result{Epoch: req.Epoch, Err: err}
	}

	raw, err := f.disp.Invoke(ctx, f.target(req), kind.List, pageParams(kind.List, ""))
	if err != nil {
		return Result{Epoch: req.Epoch, Err: err}
	}
	return Result{Epoch: req.Epoch, Rows: f.project(kind, raw, req.Filter)}
}

// Paginated fetches every page, feeding each response's cursor into the
// next request, until the cursor runs out or the page cap is hit. keepGoing
// is checked before each page; a false return exits silently with the rows
// gathered so far (cooperative cancellation for superseded fetches).
func (f *Fetcher) Paginated(ctx context.Context, req Request, keepGoing func() bool) Result {
	kind, err := f.reg.Lookup(req.Kind)
	if err != nil {
		return Result{Epoch: req.Epoch, Err: err}
	}

	result := Result{Epoch: req.Epoch}
	cursor := ""

	for page := 0; ; page++ {
		if keepGoing != nil && !keepGoing() {
			f.logger.Debug().
				Str("kind", req.Kind).
				Uint64("epoch", req.Epoch).
				Int("pages", page).
				Msg("fetch superseded, exiting")
			return result
		}
		if page >= f.pageCap {
			result.State = Truncated
			f.logger.Warn().
				Str("kind", req.Kind).
				Int("page_cap", f.pageCap).
				Msg("page cap reached, truncating")
			return result
		}

		raw, err := f.disp.Invoke(ctx, f.target(req), kind.List, pageParams(kind.List, cursor))
		if err != nil {
			// rows already gathered ride along with the error
			result.Err = err
			return result
		}
		result.Rows = append(result.Rows, f.project(kind, raw, req.Filter)...)

		cursor = nextCursor(kind.List, raw)
		if cursor == "" {
			return result
		}
	}
}

func (f *Fetcher) target(req Request) dispatch.Target {
	return dispatch.Target{Profile: req.Profile, Region: req.Region, Endpoint: req.Endpoint}
}

// project locates page items and converts each into a Row, dropping rows
// the filter rejects. A column whose path misses renders as an empty cell,
// never a failed row.
func (f *Fetcher) project(kind registry.ResourceKind, raw any, filter Filter) []Row {
	items := extract.Collect(raw, kind.ItemsPath)
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		key, _ := extract.GetString(item, kind.KeyPath)
		row := Row{Kind: kind.ID, Key: key, Raw: item, Cells: make([]Cell, 0, len(kind.Columns))}
		for _, col := range kind.Columns {
			value := ""
			if v, ok := extract.Get(item, col.Path); ok {
				value = extract.FormatAll(col.Formats, v)
			}
			row.Cells = append(row.Cells, Cell{Label: col.Label, Value: value})
		}
		if filter.Match(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

// pageParams builds the per-page parameters from the pagination descriptor.
func pageParams(spec registry.OperationSpec, cursor string) map[string]any {
	p := spec.Pagination
	if p == nil {
		return nil
	}
	params := map[string]any{}
	if p.PageSizeParam != "" && p.PageSize > 0 {
		params[p.PageSizeParam] = p.PageSize
	}
	if cursor != "" {
		params[p.CursorParam] = cursor
	}
	return params
}

// nextCursor reads the response cursor; an absent cursor ends pagination.
func nextCursor(spec registry.OperationSpec, raw any) string {
	p := spec.Pagination
	if p == nil {
		return ""
	}
	cursor, ok := extract.GetString(raw, p.CursorPath)
	if !ok {
		return ""
	}
	return cursor
}
