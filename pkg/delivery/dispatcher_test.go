package delivery_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/delivery"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestDispatcher_PerConsumerOrdering(t *testing.T) {
	d := delivery.NewDispatcher()
	defer d.Close()

	var mu sync.Mutex
	got := map[string][]string{}
	sink := delivery.SinkFunc(func(_ context.Context, item delivery.Item) error {
		mu.Lock()
		defer mu.Unlock()
		got[item.ConsumerID] = append(got[item.ConsumerID], item.Message.Text)
		return nil
	})

	var g errgroup.Group
	for _, consumer := range []string{"alice", "bob"} {
		for _, prefix := range []string{"x", "y"} {
			g.Go(func() error {
				_, err := d.Dispatch(context.Background(), consumer, sink, batch(prefix, 3, time.Millisecond)...)
				return err
			})
		}
	}
	require.NoError(t, g.Wait())

	for _, consumer := range []string{"alice", "bob"} {
		texts := got[consumer]
		require.Len(t, texts, 6)
		// Whichever batch went first, it was delivered whole.
		first := texts[0][:1]
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, texts[i][:1], consumer)
		}
		for i := 3; i < 6; i++ {
			assert.NotEqual(t, first, texts[i][:1], consumer)
		}
	}

	assert.Equal(t, 0, d.Active(), "idle queues are dropped")
}

func TestDispatcher_ConsumersDoNotBlockEachOther(t *testing.T) {
	d := delivery.NewDispatcher()
	defer d.Close()
	sink := &recorder{}

	go func() {
		_, _ = d.Dispatch(context.Background(), "slow", sink, delivery.Item{Message: domain.Message{Text: "zzz"}, Delay: time.Hour})
	}()
	assert.Eventually(t, func() bool { return d.Active() == 1 }, time.Second, time.Millisecond)

	n, err := d.Dispatch(context.Background(), "fast", sink, delivery.Item{Message: domain.Message{Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"hi"}, sink.snapshot())
}

func TestDispatcher_Close(t *testing.T) {
	d := delivery.NewDispatcher()
	sink := &recorder{}

	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(context.Background(), "c", sink, delivery.Item{Message: domain.Message{Text: "never"}, Delay: time.Hour})
		done <- err
	}()
	assert.Eventually(t, func() bool { return d.Active() == 1 }, time.Second, time.Millisecond)

	d.Close()
	assert.NoError(t, <-done)

	_, err := d.Dispatch(context.Background(), "c", sink)
	assert.ErrorIs(t, err, delivery.ErrClosed)
	assert.Empty(t, sink.snapshot())
}
