package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

type fakeReader struct {
	messages chan kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg := <-r.messages:
		return msg, nil
	}
}

func (r *fakeReader) Close() error { return nil }

type sale struct {
	id       string
	quantity int64
}

type fakeUseCase struct {
	mu    sync.Mutex
	sales []sale
	fail  map[string]bool
}

func (f *fakeUseCase) Present(context.Context, []model.Product) ([]any, error) { return nil, nil }

func (f *fakeUseCase) RecordSale(_ context.Context, id string, quantity int64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales = append(f.sales, sale{id, quantity})
	if f.fail[id] {
		return nil, errors.New("boom")
	}
	return &model.Product{}, nil
}

func (f *fakeUseCase) recorded() []sale {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sale(nil), f.sales...)
}

func TestProcessMessage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	uc := &fakeUseCase{fail: map[string]bool{"p2": true}}
	l := NewStockListener(&fakeReader{}, uc, logger.FromZap(zap.New(core)))

	l.processMessage(context.Background(), []byte(`{
		"event_type": "OrderCreated",
		"payload": {"id": "o1", "items": [
			{"product_id": "p1", "quantity": 2},
			{"product_id": "p2", "quantity": 1}
		]}
	}`))

	assert.Equal(t, []sale{{"p1", 2}, {"p2", 1}}, uc.recorded())
	failed := logs.FilterMessage("Failed to record sale for order item").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "p2", failed[0].ContextMap()["product_id"])
}

func TestProcessMessageIgnoresOtherEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	uc := &fakeUseCase{}
	l := NewStockListener(&fakeReader{}, uc, logger.FromZap(zap.New(core)))

	l.processMessage(context.Background(), []byte(`{"event_type":"OrderCancelled","payload":{"items":[{"product_id":"p1","quantity":1}]}}`))
	l.processMessage(context.Background(), []byte(`not json`))

	assert.Empty(t, uc.recorded())
	assert.Equal(t, 1, logs.FilterMessage("Failed to unmarshal event").Len())
}

func TestStartStopsOnCancel(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 1)}
	uc := &fakeUseCase{}
	l := NewStockListener(reader, uc, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	reader.messages <- kafka.Message{Value: []byte(`{"event_type":"OrderCreated","payload":{"id":"o1","items":[{"product_id":"p1","quantity":3}]}}`)}
	require.Eventually(t, func() bool { return len(uc.recorded()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}
