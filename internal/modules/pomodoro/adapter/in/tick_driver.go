package in

import (
	"context"
	"time"

	"pomo/internal/modules/pomodoro/dto"
)

type ticker interface {
	Tick(ctx context.Context) (dto.TickOutput, error)
}

// TickDriver calls Tick once per interval while the session is running. It
// stops when the session completes, leaves the running state, or ctx ends.
type TickDriver struct {
	target   ticker
	interval time.Duration
	onTick   func(dto.TickOutput)
}

func NewTickDriver(target ticker, interval time.Duration, onTick func(dto.TickOutput)) *TickDriver {
	if interval <= 0 {
		interval = time.Second
	}
	return &TickDriver{target: target, interval: interval, onTick: onTick}
}

// Run returns the last tick result.
func (d *TickDriver) Run(ctx context.Context) (dto.TickOutput, error) {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	var last dto.TickOutput
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-t.C:
			out, err := d.target.Tick(ctx)
			if err != nil {
				return last, err
			}
			last = out
			if d.onTick != nil {
				d.onTick(out)
			}
			if out.Completed || out.Session.Status != "running" {
				return last, nil
			}
		}
	}
}
