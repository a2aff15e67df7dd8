package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengw/llmgateway/internal/analytics"
	"github.com/opengw/llmgateway/internal/batcher"
)

type capturingStore struct {
	mu      sync.Mutex
	records []analytics.Record
}

func (s *capturingStore) BatchInsert(_ context.Context, records []analytics.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *capturingStore) all() []analytics.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]analytics.Record(nil), s.records...)
}

func TestEgressQueuesAnalyticsRecord(t *testing.T) {
	store := &capturingStore{}
	q := batcher.New[analytics.Record](store, 10, 1, time.Hour)
	defer q.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)

	handler := Egress(q)
	Ingress()(c)
	handler(c)

	require.Eventually(t, func() bool { return len(store.all()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, http.StatusOK, store.all()[0].StatusCode)
}
