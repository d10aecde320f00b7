package in

import (
	"context"
	"sync"
	"time"

	"pomo/internal/modules/pomodoro/dto"
	"pomo/internal/platform/clock"
)

type penalizer interface {
	PenalizeLostFocus(ctx context.Context, seconds int) (dto.SessionOutput, error)
}

// FocusObserver turns hidden/visible transitions of the terminal into lost
// focus penalties. One penalty is reported per hidden to visible transition.
type FocusObserver struct {
	target penalizer
	clock  clock.Clock

	mu       sync.Mutex
	hidden   bool
	hiddenAt time.Time
}

func NewFocusObserver(target penalizer, clk clock.Clock) *FocusObserver {
	return &FocusObserver{target: target, clock: clk}
}

func (o *FocusObserver) Hidden() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hidden {
		return
	}
	o.hidden = true
	o.hiddenAt = o.clock.Now()
}

// Visible reports the hidden duration, if any. penalized is false when the
// view was not hidden or was hidden for less than a second.
func (o *FocusObserver) Visible(ctx context.Context) (out dto.SessionOutput, penalized bool, err error) {
	o.mu.Lock()
	if !o.hidden {
		o.mu.Unlock()
		return dto.SessionOutput{}, false, nil
	}
	o.hidden = false
	seconds := clock.Elapsed(o.clock, o.hiddenAt)
	o.mu.Unlock()

	if seconds <= 0 {
		return dto.SessionOutput{}, false, nil
	}
	out, err = o.target.PenalizeLostFocus(ctx, seconds)
	if err != nil {
		return dto.SessionOutput{}, false, err
	}
	return out, true, nil
}
