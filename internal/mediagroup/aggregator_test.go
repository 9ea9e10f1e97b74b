package mediagroup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAggregator_FlushesAlbum(t *testing.T) {
	flushed := make(chan Group, 1)
	a := New(Options{Debounce: 20 * time.Millisecond, OnFlush: func(g Group) { flushed <- g }})

	assert.True(t, a.Add(Item{ChatID: 1, UserID: 7, MediaGroupID: "g", FileID: "a"}))
	assert.True(t, a.Add(Item{ChatID: 1, UserID: 7, MediaGroupID: "g", FileID: "b", Caption: "Pizza 2x1"}))
	assert.True(t, a.Add(Item{ChatID: 1, UserID: 7, MediaGroupID: "g", FileID: "c"}))

	select {
	case g := <-flushed:
		assert.Equal(t, []string{"a", "b", "c"}, g.FileIDs)
		assert.Equal(t, "Pizza 2x1", g.Caption)
		assert.Equal(t, int64(7), g.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("album was not flushed")
	}
	assert.Zero(t, a.Pending())
}

func TestAggregator_SeparateChats(t *testing.T) {
	flushed := make(chan Group, 2)
	a := New(Options{Debounce: 10 * time.Millisecond, OnFlush: func(g Group) { flushed <- g }})

	a.Add(Item{ChatID: 1, MediaGroupID: "g", FileID: "a"})
	a.Add(Item{ChatID: 2, MediaGroupID: "g", FileID: "b"})

	got := map[int64][]string{}
	for i := 0; i < 2; i++ {
		select {
		case g := <-flushed:
			got[g.ChatID] = g.FileIDs
		case <-time.After(2 * time.Second):
			t.Fatal("album was not flushed")
		}
	}
	assert.Equal(t, map[int64][]string{1: {"a"}, 2: {"b"}}, got)
}

func TestAggregator_RejectsInvalidAndOverflow(t *testing.T) {
	a := New(Options{Debounce: time.Hour, MaxItems: 2})
	defer a.Stop()

	assert.False(t, a.Add(Item{ChatID: 1, FileID: "a"}))
	assert.False(t, a.Add(Item{ChatID: 1, MediaGroupID: "g"}))

	assert.True(t, a.Add(Item{ChatID: 1, MediaGroupID: "g", FileID: "a"}))
	assert.True(t, a.Add(Item{ChatID: 1, MediaGroupID: "g", FileID: "b"}))
	assert.False(t, a.Add(Item{ChatID: 1, MediaGroupID: "g", FileID: "c"}))
	assert.Equal(t, 1, a.Pending())
}

func TestAggregator_Stop(t *testing.T) {
	called := make(chan struct{}, 1)
	a := New(Options{Debounce: 10 * time.Millisecond, OnFlush: func(Group) { called <- struct{}{} }})

	require.True(t, a.Add(Item{ChatID: 1, MediaGroupID: "g", FileID: "a"}))
	a.Stop()

	assert.Zero(t, a.Pending())
	assert.False(t, a.Add(Item{ChatID: 1, MediaGroupID: "g", FileID: "b"}))

	select {
	case <-called:
		t.Fatal("flush after stop")
	case <-time.After(50 * time.Millisecond):
	}
}
