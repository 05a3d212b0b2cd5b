package fetch

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spyglass-dev/spyglass/dispatch"
	"github.com/spyglass-dev/spyglass/registry"
	"github.com/spyglass-dev/spyglass/transport"
)

// pagedBackend serves scripted pages keyed by cursor parameter presence.
type pagedBackend struct {
	pages      []any
	errOnPage  int // 1-based; 0 disables
	calls      int
	unbounded  bool // always return a cursor, simulating an endless chain
	cursorName string
}

func (b *pagedBackend) RoundTrip(_ context.Context, call transport.Call) (any, error) {
	b.calls++
	if b.errOnPage > 0 && b.calls == b.errOnPage {
		return nil, &transport.APIError{StatusCode: 400, Code: "ThrottlingException", Message: "limit"}
	}
	if b.unbounded {
		return map[string]any{
			"TableNames": []any{fmt.Sprintf("table-%d", b.calls)},
			b.cursorName: fmt.Sprintf("cursor-%d", b.calls),
		}, nil
	}
	idx := b.calls - 1
	if idx >= len(b.pages) {
		idx = len(b.pages) - 1
	}
	return b.pages[idx], nil
}

func tableKindRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.RegisterService(registry.ServiceDescriptor{
		ID: "dynamodb", EndpointPrefix: "dynamodb", SigningName: "dynamodb",
		Protocol: registry.ProtocolJSON10, TargetPrefix: "DynamoDB_20120810",
	}))
	require.NoError(t, r.Register(registry.ResourceKind{
		ID: "dynamodb-tables", Name: "DynamoDB Tables", Service: "dynamodb",
		List: registry.OperationSpec{
			Service: "dynamodb", Operation: "ListTables",
			Pagination: &registry.PaginationSpec{
				CursorParam:   "ExclusiveStartTableName",
				CursorPath:    "LastEvaluatedTableName",
				PageSizeParam: "Limit",
				PageSize:      100,
			},
		},
		ItemsPath: "TableNames[*]",
		KeyPath:   ".",
		Columns:   []registry.Column{{Label: "Table", Path: "."}},
	}))
	return r
}

func newFetcher(t *testing.T, backend transport.Transport) *Fetcher {
	t.Helper()
	reg := tableKindRegistry(t)
	disp := dispatch.New(reg, backend, zerolog.Nop(), dispatch.WithMaxAttempts(1))
	return New(reg, disp, zerolog.Nop())
}

func page(names []any, cursor string) map[string]any {
	m := map[string]any{"TableNames": names}
	if cursor != "" {
		m["LastEvaluatedTableName"] = cursor
	}
	return m
}

func request() Request {
	return Request{Kind: "dynamodb-tables", Profile: "default", Region: "us-east-1", Epoch: 1}
}

func TestPaginatedFollowsCursorChain(t *testing.T) {
	backend := &pagedBackend{pages: []any{
		page([]any{"alpha", "beta"}, "beta"),
		page([]any{"gamma"}, ""),
	}}
	f := newFetcher(t, backend)

	res := f.Paginated(context.Background(), request(), nil)
	require.NoError(t, res.Err)
	assert.Equal(t, Done, res.State)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "alpha", res.Rows[0].Key)
	assert.Equal(t, "gamma", res.Rows[2].Key)
	assert.Equal(t, 2, backend.calls)
}

func TestPaginatedTruncatesAtPageCap(t *testing.T) {
	backend := &pagedBackend{unbounded: true, cursorName: "LastEvaluatedTableName"}
	f := newFetcher(t, backend)

	res := f.Paginated(context.Background(), request(), nil)
	require.NoError(t, res.Err)
	assert.Equal(t, Truncated, res.State)
	assert.Equal(t, defaultPageCap, backend.calls)
	assert.Len(t, res.Rows, defaultPageCap)
}

func TestPaginatedPartialFailureKeepsRows(t *testing.T) {
	backend := &pagedBackend{
		pages: []any{
			page([]any{"alpha"}, "alpha"),
			page([]any{"beta"}, "beta"),
			nil,
		},
		errOnPage: 3,
	}
	f := newFetcher(t, backend)

	res := f.Paginated(context.Background(), request(), nil)
	require.Error(t, res.Err)
	assert.True(t, dispatch.IsClass(res.Err, dispatch.ClassThrottling))

	// pages 1-2 survive the page-3 failure
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "alpha", res.Rows[0].Key)
	assert.Equal(t, "beta", res.Rows[1].Key)
}

func TestPaginatedCooperativeCancellation(t *testing.T) {
	backend := &pagedBackend{unbounded: true, cursorName: "LastEvaluatedTableName"}
	f := newFetcher(t, backend)

	pagesAllowed := 2
	res := f.Paginated(context.Background(), request(), func() bool {
		pagesAllowed--
		return pagesAllowed >= 0
	})

	// superseded fetch exits silently with what it had
	require.NoError(t, res.Err)
	assert.Equal(t, 2, backend.calls)
	assert.Len(t, res.Rows, 2)
}

func TestPageSingleCall(t *testing.T) {
	backend := &pagedBackend{pages: []any{page([]any{"alpha", "beta"}, "beta")}}
	f := newFetcher(t, backend)

	res := f.Page(context.Background(), request())
	require.NoError(t, res.Err)
	assert.Len(t, res.Rows, 2)
	assert.Equal(t, 1, backend.calls)
}

func TestPageUnknownKind(t *testing.T) {
	f := newFetcher(t, &pagedBackend{pages: []any{nil}})

	res := f.Page(context.Background(), Request{Kind: "nope", Epoch: 7})
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, registry.ErrKindNotFound)
	assert.Equal(t, uint64(7), res.Epoch)
}

func TestFilterScopesRows(t *testing.T) {
	backend := &pagedBackend{pages: []any{page([]any{"orders", "users", "orders-archive"}, "")}}
	f := newFetcher(t, backend)

	req := request()
	req.Filter = Filter{Query: "ORDERS"}
	res := f.Paginated(context.Background(), req, nil)
	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "orders", res.Rows[0].Key)
	assert.Equal(t, "orders-archive", res.Rows[1].Key)
}

func TestFilterNamedFields(t *testing.T) {
	row := Row{
		Kind: "ec2-instances",
		Key:  "i-1",
		Cells: []Cell{
			{Label: "Instance ID", Value: "i-1"},
			{Label: "State", Value: "running"},
		},
		Raw: map[string]any{"instanceType": "t3.micro"},
	}

	assert.True(t, Filter{Query: "run", Fields: []string{"State"}}.Match(row))
	assert.False(t, Filter{Query: "i-1", Fields: []string{"State"}}.Match(row))
	// raw paths work as field names too
	assert.True(t, Filter{Query: "micro", Fields: []string{"instanceType"}}.Match(row))
	assert.True(t, Filter{}.Match(row))
}

func TestProjectMissingColumnYieldsEmptyCell(t *testing.T) {
	reg := tableKindRegistry(t)
	require.NoError(t, reg.Register(registry.ResourceKind{
		ID: "sparse", Name: "Sparse", Service: "dynamodb",
		List:      registry.OperationSpec{Service: "dynamodb", Operation: "ListThings"},
		ItemsPath: "Things[*]",
		KeyPath:   "id",
		Columns: []registry.Column{
			{Label: "ID", Path: "id"},
			{Label: "Missing", Path: "nested.absent"},
		},
	}))
	backend := &pagedBackend{pages: []any{
		map[string]any{"Things": []any{map[string]any{"id": "t-1"}}},
	}}
	disp := dispatch.New(reg, backend, zerolog.Nop())
	f := New(reg, disp, zerolog.Nop())

	res := f.Page(context.Background(), Request{Kind: "sparse", Epoch: 1})
	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 1)

	v, ok := res.Rows[0].Cell("Missing")
	require.True(t, ok)
	assert.Equal(t, "", v)
}
