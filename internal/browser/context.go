package browser

import (
	"context"
)

// combineContext derives a context from tabCtx, which carries the chromedp
// target, that is also canceled when callerCtx is. Values come from tabCtx only.
func combineContext(tabCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tabCtx)

	go func() {
		select {
		case <-callerCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
