package terminology

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	mu    sync.Mutex
	rules []Rule
	saved bool
	fail  error
	saves int
}

func (m *memPersister) Load(context.Context) ([]Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, ErrNoDocument
	}
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

func (m *memPersister) Save(_ context.Context, rules []Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.rules = append([]Rule(nil), rules...)
	m.saved = true
	m.saves++
	return nil
}

func TestOpen_SeedsDefaults(t *testing.T) {
	p := &memPersister{}
	store, err := Open(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, DefaultRules(), store.Snapshot().Rules())
	assert.Equal(t, 1, p.saves)
	assert.Equal(t, "今天安装水肥机", store.Normalize("今天安装水费机"))
}

func TestOpen_LoadsExisting(t *testing.T) {
	p := &memPersister{rules: []Rule{{"a", "b"}}, saved: true}
	store, err := Open(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []Rule{{"a", "b"}}, store.Snapshot().Rules())
	assert.Equal(t, 0, p.saves)
}

func TestOpen_LoadError(t *testing.T) {
	_, err := Open(context.Background(), failingLoad{})
	assert.Error(t, err)
}

type failingLoad struct{}

func (failingLoad) Load(context.Context) ([]Rule, error) { return nil, errors.New("disk gone") }
func (failingLoad) Save(context.Context, []Rule) error   { return nil }

func TestStore_MutationsBumpVersion(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	store := NewStore(p, []Rule{{"水费机", "水肥机"}})
	assert.Equal(t, uint64(1), store.Snapshot().Version)

	v, err := store.Upsert(ctx, " 玉苗 ", " 玉米 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	got, ok := store.Snapshot().Lookup("玉苗")
	assert.True(t, ok)
	assert.Equal(t, "玉米", got)

	v, ok, err = store.Delete(ctx, "玉苗")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), v)

	v, ok, err = store.Delete(ctx, "玉苗")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(3), v, "deleting an absent rule must not bump the version")

	v, err = store.Edit(ctx, "水费机", "水费器", "水肥机")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), v)
	assert.Equal(t, []Rule{{"水费器", "水肥机"}}, store.Snapshot().Rules())
	assert.Equal(t, store.Snapshot().Rules(), p.rules)
}

func TestStore_EmptyTermRejected(t *testing.T) {
	store := NewStore(nil, nil)
	_, err := store.Upsert(context.Background(), "  ", "x")
	assert.ErrorIs(t, err, ErrEmptyTerm)
	_, err = store.Edit(context.Background(), "a", "", "x")
	assert.ErrorIs(t, err, ErrEmptyTerm)
	assert.Equal(t, uint64(1), store.Snapshot().Version)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := NewStore(nil, []Rule{{"水费机", "水肥机"}})
	before := store.Snapshot()

	_, err := store.Upsert(context.Background(), "水费机", "水肥一体机")
	require.NoError(t, err)

	assert.Equal(t, "今天安装水肥机", before.Normalize("今天安装水费机"))
	assert.Equal(t, "今天安装水肥一体机", store.Normalize("今天安装水费机"))

	rules := before.Rules()
	rules[0].Correct = "mutated"
	assert.Equal(t, "水肥机", before.Rules()[0].Correct)
}

func TestStore_ImportCountsOnlyNewKeys(t *testing.T) {
	store := NewStore(nil, []Rule{{"a", "1"}, {"b", "2"}})
	added, v, err := store.Import(context.Background(), []Rule{
		{"b", "22"}, {"c", "3"}, {"", "skip"}, {"d", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, []Rule{{"a", "1"}, {"b", "22"}, {"c", "3"}, {"d", ""}}, store.Snapshot().Rules())
}

func TestStore_PersistFailureKeepsState(t *testing.T) {
	p := &memPersister{fail: errors.New("read-only filesystem")}
	store := NewStore(p, []Rule{{"a", "1"}})

	_, err := store.Upsert(context.Background(), "b", "2")
	require.Error(t, err)
	_, _, err = store.Import(context.Background(), []Rule{{"c", "3"}})
	require.Error(t, err)

	snap := store.Snapshot()
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, []Rule{{"a", "1"}}, snap.Rules())
}

func TestStore_Reload(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	store := NewStore(p, []Rule{{"a", "1"}})

	// Nothing saved yet.
	_, err := store.Reload(ctx)
	require.ErrorIs(t, err, ErrNoDocument)

	require.NoError(t, p.Save(ctx, []Rule{{"a", "1"}}))
	v, err := store.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	require.NoError(t, p.Save(ctx, []Rule{{"a", "2"}}))
	v, err = store.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, "2", store.Normalize("a"))

	v, err = NewStore(nil, []Rule{{"a", "1"}}).Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memPersister{}, DefaultRules())

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := store.Upsert(ctx, fmt.Sprintf("w%d-%d", w, i), "x")
				assert.NoError(t, err)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				assert.Equal(t, "今天安装水肥机", store.Normalize("今天安装水费机"))
			}
		}()
	}
	wg.Wait()

	snap := store.Snapshot()
	assert.Equal(t, uint64(201), snap.Version)
	assert.Equal(t, len(DefaultRules())+200, snap.Len())
}
