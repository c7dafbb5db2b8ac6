package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPutTakeOrder(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 4; i++ {
		require.True(t, q.Put(i))
	}
	for i := 0; i < 4; i++ {
		v, ok := q.Take()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestAddFullDrops(t *testing.T) {
	q := New[int](2)
	require.True(t, q.Add(1))
	require.True(t, q.Add(2))
	require.False(t, q.Add(3))
	require.Equal(t, int64(1), q.Dropped())
}

func TestCloseDrainsBuffered(t *testing.T) {
	q := New[int](4)
	q.Add(1)
	q.Add(2)
	q.Close()

	v, ok := q.Take()
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = q.Take()
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = q.Take()
	require.False(t, ok)
}

func TestCloseWakesBlockedTake(t *testing.T) {
	q := New[int](1)
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Take()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Take did not wake up after Close")
	}
}

func TestCloseWakesBlockedPut(t *testing.T) {
	q := New[int](1)
	require.True(t, q.Put(1)) // fill the buffer

	var wg sync.WaitGroup
	wg.Add(1)
	var result bool
	go func() {
		defer wg.Done()
		result = q.Put(2)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()
	wg.Wait()
	require.False(t, result)
}
