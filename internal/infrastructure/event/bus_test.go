package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Inventory", uuid.New(), uuid.New()),
	}
}

// testHandler records handled events and optionally fails or panics
type testHandler struct {
	eventTypes []string
	err        error
	panicWith  interface{}

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	added := newTestHandler("StockAdded")
	removed := newTestHandler("StockRemoved")
	bus.Subscribe(added)
	bus.Subscribe(removed)

	err := bus.Publish(context.Background(), newTestEvent("StockAdded"), newTestEvent("StockAdded"), newTestEvent("StockRemoved"))

	require.NoError(t, err)
	assert.Equal(t, 2, added.count())
	assert.Equal(t, 1, removed.count())
}

func TestInMemoryEventBus_SubscribeOverridesTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("StockAdded")
	bus.Subscribe(handler, "StockTransferred")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("StockAdded")))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("StockTransferred")))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("StockAdded")
	failing.err = errors.New("cache unavailable")
	healthy := newTestHandler("StockAdded")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("StockAdded"))

	assert.ErrorIs(t, err, failing.err)
	assert.Equal(t, 1, healthy.count())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Event handler failed", logs.All()[0].Message)
}

func TestInMemoryEventBus_RecoversPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := newTestHandler("StockAdded")
	panicking.panicWith = "boom"
	healthy := newTestHandler("StockAdded")
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("StockAdded"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panicked: boom")
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("StockAdded")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("StockAdded")))
	assert.Zero(t, handler.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.False(t, bus.IsRunning())

	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.IsRunning())

	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.IsRunning())
}

func TestInMemoryEventBus_RecordsHandlerSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler("StockRemoved")
	failing.err = errors.New("nope")
	bus.Subscribe(failing)

	_ = bus.Publish(context.Background(), newTestEvent("StockRemoved"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "event.handle StockRemoved", spans[0].Name())
	assert.Equal(t, "nope", spans[0].Status().Description)
}
