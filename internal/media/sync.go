package media

import (
	"context"
	"time"
)

// DefaultSeekTimeout bounds one frame-accurate seek during export.
const DefaultSeekTimeout = 150 * time.Millisecond

// SeekExact moves clip to seconds and waits until the frame there is
// decoded. A decoder that does not answer within timeout yields
// ErrSeekTimeout; the caller keeps going with whatever frame is current.
func SeekExact(ctx context.Context, clip Clip, seconds float64, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultSeekTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	op := clip.Seek(seconds)
	for _, ch := range []<-chan struct{}{op.Seeked(), op.Ready()} {
		select {
		case <-ch:
		case <-timer.C:
			return ErrSeekTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return op.Err()
}
