package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockEventHandler(t *testing.T) {
	h := NewMockEventHandler("StockAdded", "StockRemoved")
	assert.Equal(t, []string{"StockAdded", "StockRemoved"}, h.EventTypes())

	tenantID := TestTenantID()
	assert.NoError(t, h.Handle(context.Background(), NewTestEvent("StockAdded", tenantID)))
	assert.NoError(t, h.Handle(context.Background(), NewTestEvent("StockRemoved", tenantID)))
	assert.NoError(t, h.Handle(context.Background(), NewTestEvent("StockAdded", tenantID)))

	assert.Equal(t, 3, h.HandledCount())
	assert.Len(t, h.HandledOfType("StockAdded"), 2)
	assert.Equal(t, tenantID, h.Handled()[1].TenantID())

	boom := errors.New("boom")
	h.SetError(boom)
	assert.ErrorIs(t, h.Handle(context.Background(), NewTestEvent("StockAdded", tenantID)), boom)
}

func TestNewTestEvent(t *testing.T) {
	e := NewTestEvent("StockTransferred", TestTenantID())

	assert.Equal(t, "StockTransferred", e.EventType())
	assert.Equal(t, "TestAggregate", e.AggregateType())
	assert.NotEqual(t, e.EventID(), NewTestEvent("StockTransferred", TestTenantID()).EventID())
	assert.WithinDuration(t, time.Now(), e.OccurredAt(), time.Second)
}

func TestWaitForEventCount(t *testing.T) {
	h := NewMockEventHandler()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = h.Handle(context.Background(), NewTestEvent("StockAdded", TestTenantID()))
	}()

	WaitForEventCount(t, h, 1, time.Second)
}
