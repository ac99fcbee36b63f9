package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_InitialState(t *testing.T) {
	tr := NewTracker()
	snap := tr.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Empty(t, snap.Message)
	assert.Zero(t, snap.Progress)
}

func TestTracker_SetAndReset(t *testing.T) {
	tr := NewTracker()

	tr.Set(StatusProcessing, "Chunking files...", 70)
	snap := tr.Snapshot()
	assert.Equal(t, StatusProcessing, snap.Status)
	assert.Equal(t, "Chunking files...", snap.Message)
	assert.Equal(t, 70, snap.Progress)

	tr.Reset()
	snap = tr.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Empty(t, snap.Message)
	assert.Zero(t, snap.Progress)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.Set(StatusProcessing, "working", n)
		}(i)
		go func() {
			defer wg.Done()
			snap := tr.Snapshot()
			// A snapshot is consistent: a processing status always carries
			// its message.
			if snap.Status == StatusProcessing {
				assert.Equal(t, "working", snap.Message)
			}
		}()
	}
	wg.Wait()
}
