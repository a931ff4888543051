package app

import (
	"context"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// StartTimer ticks the session once per interval until the session completes,
// ctx is canceled, or the returned stop function is called. onTick runs on the
// timer goroutine after every tick. stop blocks until the goroutine has exited,
// so no tick fires once it returns.
func StartTimer(ctx context.Context, session *Session, interval time.Duration, onTick func(TickResult)) (stop func()) {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if session.Phase() == domain.PhaseCompleted {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// stop may have raced the ticker; cancellation wins.
				if ctx.Err() != nil {
					return
				}
				res := session.Tick()
				if onTick != nil {
					onTick(res)
				}
				if res.Phase == domain.PhaseCompleted {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}
}
