package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type failingStore struct {
	*MemoryStore
	err error
}

func (f failingStore) Save(ctx context.Context, key string, data []byte) error {
	return f.err
}

func newBoundCollection(t *testing.T, initial []item, opts ...BindOption) (*cellgraph.Collection[item], *MemoryStore, *Binding) {
	t.Helper()
	rt := cellgraph.New(cellgraph.WithLogger(discard))
	c := cellgraph.NewCollection(rt, initial)
	store := NewMemoryStore()
	return c, store, Bind(c, store, "items", opts...)
}

func TestBindSkipsInitialSave(t *testing.T) {
	_, store, b := newBoundCollection(t, []item{{Name: "a"}})

	assert.Equal(t, 0, b.Saves())
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, "items", b.Key())
}

func TestBindSaveInitial(t *testing.T) {
	_, store, b := newBoundCollection(t, []item{{Name: "a"}}, SaveInitial())

	assert.Equal(t, 1, b.Saves())
	values, err := LoadValues[item](context.Background(), store, "items", discard)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "a"}}, values)
}

func TestBindSavesOncePerTransaction(t *testing.T) {
	c, store, b := newBoundCollection(t, []item{{Name: "a"}})
	rt := c.Runtime()

	require.NoError(t, rt.Tx(func() {
		c.PushBackValue(item{Name: "b"})
		c.Peek().At(0).Update(func(it item) item {
			it.Done = true
			return it
		})
		c.PushFrontValue(item{Name: "c"})
	}))

	assert.Equal(t, 1, b.Saves())
	values, err := LoadValues[item](context.Background(), store, "items", discard)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "c"}, {Name: "a", Done: true}, {Name: "b"}}, values)
}

func TestBindSavesOnElementWrite(t *testing.T) {
	c, store, b := newBoundCollection(t, []item{{Name: "a"}, {Name: "b"}})

	c.Peek().At(1).Set(item{Name: "b", Done: true})

	assert.Equal(t, 1, b.Saves())
	values, err := LoadValues[item](context.Background(), store, "items", discard)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "a"}, {Name: "b", Done: true}}, values)
}

func TestBindSavesOnRemove(t *testing.T) {
	c, store, b := newBoundCollection(t, []item{{Name: "a"}, {Name: "b"}})

	require.NoError(t, c.Remove(0))

	assert.Equal(t, 1, b.Saves())
	values, err := LoadValues[item](context.Background(), store, "items", discard)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "b"}}, values)
}

func TestBindClose(t *testing.T) {
	c, _, b := newBoundCollection(t, nil)
	b.Close()

	c.PushBackValue(item{Name: "a"})
	assert.Equal(t, 0, b.Saves())
}

func TestBindSaveFailure(t *testing.T) {
	rt := cellgraph.New(cellgraph.WithLogger(discard))
	c := cellgraph.NewCollection(rt, []item{{Name: "a"}})
	store := failingStore{MemoryStore: NewMemoryStore(), err: errors.New("disk full")}

	var failed []string
	b := Bind(c, store, "items", WithErrorHandler(func(key string, err error) {
		failed = append(failed, key+": "+err.Error())
	}))

	c.PushBackValue(item{Name: "b"})

	assert.Equal(t, 0, b.Saves())
	assert.Equal(t, 1, b.Failures())
	assert.Equal(t, []string{"items: disk full"}, failed)
	assert.Equal(t, 2, c.Len(nil), "in-memory state is kept")
}

func TestLoadValuesMissing(t *testing.T) {
	values, err := LoadValues[item](context.Background(), NewMemoryStore(), "items", discard)
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestLoadValuesCorrupt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "items", []byte("not json")))

	values, err := LoadValues[item](ctx, store, "items", discard)
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestLoadValuesBackendError(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	values, err := LoadValues[item](context.Background(), store, "items", discard)
	var closed ErrStoreClosed
	require.ErrorAs(t, err, &closed)
	assert.Contains(t, err.Error(), `"items"`)
	assert.Nil(t, values)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data, err := EncodeValues([]item{{Name: "x"}, {Name: "y", Done: true}})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "items", data))

	rt := cellgraph.New(cellgraph.WithLogger(discard))
	c := cellgraph.NewCollection(rt, []item{{Name: "old"}})

	n, err := Restore(ctx, c, store, "items", discard)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []item{{Name: "x"}, {Name: "y", Done: true}}, c.Peek().Values(nil))

	require.NoError(t, store.Save(ctx, "items", []byte(`{"version":9}`)))
	n, err = Restore(ctx, c, store, "items", discard)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, c.Len(nil))
}

func TestRestoreKeepsStateOnBackendError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	rt := cellgraph.New(cellgraph.WithLogger(discard))
	c := cellgraph.NewCollection(rt, []item{{Name: "kept"}})

	n, err := Restore(ctx, c, store, "items", discard)
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, []item{{Name: "kept"}}, c.Peek().Values(nil))
}
