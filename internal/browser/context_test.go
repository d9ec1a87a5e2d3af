package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type ctxKey struct{}

func TestCombineContext(t *testing.T) {
	t.Run("caller cancellation propagates", func(t *testing.T) {
		tabCtx := context.WithValue(context.Background(), ctxKey{}, "tab")
		callerCtx, callerCancel := context.WithCancel(context.Background())

		combined, cancel := combineContext(tabCtx, callerCtx)
		defer cancel()

		assert.Equal(t, "tab", combined.Value(ctxKey{}))
		callerCancel()

		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context was not canceled by the caller")
		}
		assert.NoError(t, tabCtx.Err())
	})

	t.Run("tab cancellation propagates", func(t *testing.T) {
		tabCtx, tabCancel := context.WithCancel(context.Background())
		combined, cancel := combineContext(tabCtx, context.Background())
		defer cancel()

		tabCancel()
		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}
