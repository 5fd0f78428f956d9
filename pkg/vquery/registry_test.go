package vquery

import (
	"testing"

	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	closed bool
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestGetQueryContext_SameKeyReturnsSameContext(t *testing.T) {
	r := New()
	node := vtypes.Node{ID: 1}

	c1 := r.GetQueryContext(node, "q1")
	c2 := r.GetQueryContext(node, "q1")
	require.Same(t, c1, c2)

	c3 := r.GetQueryContext(node, "q2")
	require.NotSame(t, c1, c3)
}

func TestRegisterReader_IdsAreMonotonicAcrossContexts(t *testing.T) {
	r := New()
	node := vtypes.Node{ID: 1}
	ctxA := r.GetQueryContext(node, "qa")
	ctxB := r.GetQueryContext(node, "qb")

	idA := r.RegisterReader(ctxA, &fakeReader{})
	idB := r.RegisterReader(ctxB, &fakeReader{})
	idA2 := r.RegisterReader(ctxA, &fakeReader{})

	require.Less(t, idA, idB)
	require.Less(t, idB, idA2)
}

func TestGetReader_UnknownIDNotFound(t *testing.T) {
	r := New()
	ctx := r.GetQueryContext(vtypes.Node{ID: 1}, "q1")

	_, ok := ctx.GetReader(999)
	require.False(t, ok)
}

func TestEndQuery_ClosesAllReadersAndRemovesContext(t *testing.T) {
	r := New()
	node := vtypes.Node{ID: 1}
	ctx := r.GetQueryContext(node, "q1")

	reader1 := &fakeReader{}
	reader2 := &fakeReader{}
	id1 := r.RegisterReader(ctx, reader1)
	id2 := r.RegisterReader(ctx, reader2)

	r.EndQuery(node, "q1")

	require.True(t, reader1.closed)
	require.True(t, reader2.closed)

	_, ok1 := ctx.GetReader(id1)
	_, ok2 := ctx.GetReader(id2)
	require.False(t, ok1)
	require.False(t, ok2)

	fresh := r.GetQueryContext(node, "q1")
	require.NotSame(t, ctx, fresh, "endQuery removes the context so a later call starts clean")
}

func TestEndQuery_UnknownKeyIsNoOp(t *testing.T) {
	r := New()
	require.NotPanics(t, func() {
		r.EndQuery(vtypes.Node{ID: 42}, "never-existed")
	})
}
