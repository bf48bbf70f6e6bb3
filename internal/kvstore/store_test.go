package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingBackend) Set(context.Context, string, []byte) error   { return f.err }

// gatedBackend parks every Get until release is closed.
type gatedBackend struct {
	*MemoryBackend
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := g.MemoryBackend.Get(ctx, key)
	g.entered <- struct{}{}
	<-g.release
	return raw, err
}

func TestColdReadDoesNotOverwriteConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	for _, seed := range []string{"old", ""} {
		backend := &gatedBackend{
			MemoryBackend: NewMemoryBackend(),
			entered:       make(chan struct{}, 1),
			release:       make(chan struct{}),
		}
		if seed != "" {
			require.NoError(t, backend.Set(ctx, "slot", []byte(`"`+seed+`"`)))
		}
		s := New(backend)

		type result struct {
			value string
			err   error
		}
		done := make(chan result, 1)
		go func() {
			v, err := Read(ctx, s, "slot", "absent")
			done <- result{v, err}
		}()

		<-backend.entered
		require.NoError(t, Write(ctx, s, "slot", "new"))
		close(backend.release)

		first := <-done
		require.NoError(t, first.err)
		assert.Equal(t, "new", first.value, "seed %q", seed)

		again, err := Read(ctx, s, "slot", "absent")
		require.NoError(t, err)
		assert.Equal(t, "new", again, "seed %q", seed)
	}
}

func TestReadReturnsDefaultWhenAbsent(t *testing.T) {
	s := NewMemory()

	got, err := Read(context.Background(), s, "missing", map[string]int{"seed": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"seed": 1}, got)
}

func TestWriteThenRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, Write(ctx, s, "user", profile{Name: "A", Email: "a@x.com"}))

	got, err := Read(ctx, s, "user", profile{})
	require.NoError(t, err)
	assert.Equal(t, profile{Name: "A", Email: "a@x.com"}, got)
}

func TestWriteIsLastWriterWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, Write(ctx, s, "slot", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, Write(ctx, s, "slot", map[string]string{"c": "3"}))

	got, err := Read(ctx, s, "slot", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c": "3"}, got)
}

func TestNullSlotDecodesToNilPointer(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, Write[*profile](ctx, s, "session", nil))

	got, err := Read[*profile](ctx, s, "session", &profile{Name: "default"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreSharesBackendAcrossInstances(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	require.NoError(t, Write(ctx, New(backend), "k", []int{1, 2, 3}))

	got, err := Read(ctx, New(backend), "k", []int(nil))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestBackendErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("quota exceeded")
	s := New(failingBackend{err: boom})

	_, err := Read(ctx, s, "k", 0)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read slot k")

	err = Write(ctx, s, "k", 1)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "write slot k")
}
