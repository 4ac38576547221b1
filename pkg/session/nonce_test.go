package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonceMonotonicUnderConcurrency(t *testing.T) {
	n := NewNonce(0)
	const workers = 50
	const perWorker = 200

	seen := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				seen <- n.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	values := make(map[int64]bool, workers*perWorker)
	for v := range seen {
		assert.False(t, values[v], "nonce value %d issued more than once", v)
		values[v] = true
	}
	assert.Len(t, values, workers*perWorker)
}

func TestNonceSetAndRollback(t *testing.T) {
	n := NewNonce(0)
	n.Set(100)
	assert.Equal(t, int64(100), n.Current())
	v := n.Next()
	assert.Equal(t, int64(100), v)
	assert.Equal(t, int64(101), n.Current())
	n.Rollback()
	assert.Equal(t, int64(100), n.Current())
}

func TestNonceReset(t *testing.T) {
	n := NewNonce(0)
	n.Next()
	n.Next()
	n.Reset()
	assert.Equal(t, int64(0), n.Current())
}

func TestNonceSyncFromServer(t *testing.T) {
	n := NewNonce(0)
	n.SyncFromServer(9000)
	assert.Equal(t, int64(9000), n.Current())
}
