package store

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
)

func sampleLock(recipe, digest string) *resolve.Lock {
	return &resolve.Lock{
		Recipe:     recipe,
		Version:    "0.1.0",
		Platform:   map[string]string{"os": "Linux"},
		Requires:   []string{"fmt/9.1.0", "wayland/1.21.0"},
		Generators: []string{"CMakeDeps"},
		Rules:      []int{0},
		Digest:     digest,
	}
}

// exercise runs the behaviour every Store must share.
func exercise(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "error: %v", err)

	assert.True(t, errors.Is(s.Put(ctx, &resolve.Lock{Recipe: "x"}), errors.ErrCodeInvalidInput))

	a := sampleLock("rawrbox-render", "bbb")
	b := sampleLock("rawrbox-render", "aaa")
	c := sampleLock("rawrbox-math", "ccc")
	for _, l := range []*resolve.Lock{a, b, c} {
		require.NoError(t, s.Put(ctx, l))
	}
	// idempotent
	require.NoError(t, s.Put(ctx, a))

	got, err := s.Get(ctx, "bbb")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	list, err := s.List(ctx, "rawrbox-render")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "aaa", list[0].Digest)
	assert.Equal(t, "bbb", list[1].Digest)

	list, err = s.List(ctx, "rawrbox-ui")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := sampleLock("a", "d1")
	require.NoError(t, s.Put(ctx, l))
	l.Recipe = "changed"
	l.Requires[0] = "zlib/1.3.1"
	l.Platform["os"] = "Windows"
	l.Generators[0] = "PkgConfigDeps"

	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, sampleLock("a", "d1"), got)

	got.Requires[0] = "zlib/1.3.1"
	got.Platform["os"] = "Windows"
	list, err := s.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sampleLock("a", "d1"), list[0])

	list[0].Requires[1] = "zlib/1.3.1"
	again, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, sampleLock("a", "d1"), again)
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Put(ctx, sampleLock("a", "same"))
			_, _ = s.Get(ctx, "same")
		}()
	}
	wg.Wait()

	list, err := s.List(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// TestMongoStore runs against a live server when STACKRECIPE_TEST_MONGO_URI
// is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("STACKRECIPE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("STACKRECIPE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "stackrecipe_test")
	require.NoError(t, err)
	defer s.Close(ctx)
	_, _ = s.coll.DeleteMany(ctx, map[string]any{})

	exercise(t, s)
}
