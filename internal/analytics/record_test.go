package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetTimingDerivesGatewayMS(t *testing.T) {
	r := &Record{}
	r.SetTiming(120, 100)
	assert.Equal(t, int64(120), r.TotalMS)
	assert.Equal(t, int64(100), r.ModelMS)
	assert.Equal(t, int64(20), r.GatewayMS)
}

func TestSetTimingZeroModelMSYieldsZeroGatewayMS(t *testing.T) {
	r := &Record{}
	r.SetTiming(50, 0)
	assert.Equal(t, int64(0), r.GatewayMS)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	r := &Record{ID: "req-1"}
	snap := r.Snapshot()

	r.Mu.Lock()
	r.ModelName = "gpt-x"
	r.Mu.Unlock()

	assert.Equal(t, "req-1", snap.ID)
	assert.Empty(t, snap.ModelName)
}
