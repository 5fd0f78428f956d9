package vquery

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vtypes"
)

// Reader is the opaque per-query cursor the registry tracks the lifecycle
// of. Its fetch semantics ((time, value) pair pulling) belong to whatever
// querySingleSeries constructs; the registry only needs to hold it and
// close it.
type Reader interface {
	Close() error
}

// Key identifies a query context by the requesting node and the query id it
// assigned.
type Key struct {
	Requester vtypes.Node
	QueryID   string
}

// Context is a single query's live state: the set of readers it has
// allocated, keyed by the registry's monotonic local reader id.
type Context struct {
	key     Key
	mu      sync.Mutex
	readers map[int64]Reader
}

func newContext(key Key) *Context {
	return &Context{key: key, readers: make(map[int64]Reader)}
}

// Registry is the Query Session Registry: a map from (requester, queryId) to
// Context, with a single monotonic counter minting reader ids across every
// context this member holds.
type Registry struct {
	mu       sync.Mutex
	contexts map[Key]*Context
	owners   map[int64]*Context
	nextID   int64
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{contexts: make(map[Key]*Context), owners: make(map[int64]*Context)}
}

// GetQueryContext returns the context for (requester, queryId), creating one
// if this is the first reader registration seen for that pair.
func (r *Registry) GetQueryContext(requester vtypes.Node, queryID string) *Context {
	key := Key{Requester: requester, QueryID: queryID}

	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, ok := r.contexts[key]
	if !ok {
		ctx = newContext(key)
		r.contexts[key] = ctx
	}
	return ctx
}

// RegisterReader allocates a monotonic local reader id, binds reader to it
// within ctx, and returns the id.
func (r *Registry) RegisterReader(ctx *Context, reader Reader) int64 {
	id := atomic.AddInt64(&r.nextID, 1)

	ctx.mu.Lock()
	ctx.readers[id] = reader
	ctx.mu.Unlock()

	r.mu.Lock()
	r.owners[id] = ctx
	r.mu.Unlock()

	vmetrics.QueryReadersActive.Inc()
	return id
}

// GetReader looks a reader up by its globally-unique id alone, the shape
// fetchSingleSeries needs since its wire request carries no requester or
// queryId.
func (r *Registry) GetReader(id int64) (Reader, bool) {
	r.mu.Lock()
	ctx, ok := r.owners[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return ctx.GetReader(id)
}

// GetReader returns the reader bound to id within ctx, or (nil, false) if
// fetchSingleSeries was called with an id that was never registered or has
// already been released by endQuery.
func (ctx *Context) GetReader(id int64) (Reader, bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	reader, ok := ctx.readers[id]
	return reader, ok
}

// ErrReaderNotFound wraps vtypes.ErrReaderNotFound with the requested id.
func ErrReaderNotFound(id int64) error {
	return fmt.Errorf("%w: reader %d", vtypes.ErrReaderNotFound, id)
}

// EndQuery closes and releases every reader registered under (requester,
// queryId) and removes the context itself. It is a no-op if no context was
// ever created for that pair.
func (r *Registry) EndQuery(requester vtypes.Node, queryID string) {
	key := Key{Requester: requester, QueryID: queryID}

	r.mu.Lock()
	ctx, ok := r.contexts[key]
	if ok {
		delete(r.contexts, key)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	ctx.mu.Lock()
	ids := make([]int64, 0, len(ctx.readers))
	for id, reader := range ctx.readers {
		if err := reader.Close(); err != nil {
			// Best-effort: a reader failing to close cleanly must not stop
			// the rest of the query's readers from being released.
			_ = err
		}
		ids = append(ids, id)
		vmetrics.QueryReadersActive.Dec()
	}
	ctx.readers = make(map[int64]Reader)
	ctx.mu.Unlock()

	r.mu.Lock()
	for _, id := range ids {
		delete(r.owners, id)
	}
	r.mu.Unlock()
}
