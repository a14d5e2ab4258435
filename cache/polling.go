package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-careteam-sync/internal/clock"
)

// poller drives interval refetches for one entry.
type poller struct {
	interval time.Duration
	ticker   clock.Ticker
	done     chan struct{}
}

func (p *poller) stop() {
	p.ticker.Stop()
	close(p.done)
}

// reschedulePollingLocked keeps one poller per entry, running at the
// smallest interval any current subscriber asked for.
func (e *Engine) reschedulePollingLocked(ent *entry) {
	interval := ent.pollingInterval()

	if ent.poller != nil {
		if ent.poller.interval == interval {
			return
		}
		ent.poller.stop()
		ent.poller = nil
	}
	if interval <= 0 || e.closed {
		return
	}

	p := &poller{
		interval: interval,
		ticker:   e.clock.NewTicker(interval),
		done:     make(chan struct{}),
	}
	ent.poller = p
	go e.runPoller(ent, p)

	e.logger.Debug("polling scheduled",
		zap.String("key", ent.key),
		zap.Duration("interval", interval),
	)
}

func (e *Engine) runPoller(ent *entry, p *poller) {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C():
			e.mu.Lock()
			if !e.closed && ent.poller == p && len(ent.subs) > 0 && !ent.inflight {
				e.startFetchLocked(ent)
			}
			e.mu.Unlock()
		}
	}
}

// NotifyFocus refetches every subscribed entry whose subscribers opted into
// RefetchOnFocus.
func (e *Engine) NotifyFocus() {
	e.refetchWhere(func(o QueryOptions) bool { return o.RefetchOnFocus })
}

// NotifyReconnect refetches every subscribed entry whose subscribers opted
// into RefetchOnReconnect.
func (e *Engine) NotifyReconnect() {
	e.refetchWhere(func(o QueryOptions) bool { return o.RefetchOnReconnect })
}

func (e *Engine) refetchWhere(pred func(QueryOptions) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	for _, ent := range e.entries {
		if ent.inflight || len(ent.subs) == 0 || !ent.wants(pred) {
			continue
		}
		e.startFetchLocked(ent)
	}
}
