package transfer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/model"
)

// DefaultPollInterval is how often the transfer list reloads.
const DefaultPollInterval = 30 * time.Second

// Lister loads transfers.
type Lister interface {
	Transfers(ctx context.Context, q client.TransferQuery) ([]model.Transfer, error)
}

// Poller keeps a transfer list fresh. Every fetch is numbered; a response
// older than the newest one applied is dropped, so a slow periodic fetch can
// never overwrite the result of a later manual refresh.
type Poller struct {
	API      Lister
	Query    client.TransferQuery
	Interval time.Duration
	// OnUpdate is called with each applied list.
	OnUpdate func([]model.Transfer)
	// OnError is called when a fetch fails.
	OnError func(error)

	mu      sync.Mutex
	seq     uint64
	applied uint64
	latest  []model.Transfer

	notifyMu sync.Mutex

	refreshOnce sync.Once
	refreshCh   chan struct{}
}

func (p *Poller) refreshChan() chan struct{} {
	p.refreshOnce.Do(func() { p.refreshCh = make(chan struct{}, 1) })
	return p.refreshCh
}

// Refresh asks a running poller to fetch now. It never blocks.
func (p *Poller) Refresh() {
	select {
	case p.refreshChan() <- struct{}{}:
	default:
	}
}

// Latest returns the most recently applied list.
func (p *Poller) Latest() []model.Transfer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Run fetches immediately, then on every tick and every Refresh, until ctx is
// done. Fetches run concurrently; cancelling ctx aborts the ones in flight.
// Run returns once they have finished.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	fetch := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.poll(ctx)
		}()
	}

	fetch()
	refresh := p.refreshChan()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fetch()
		case <-refresh:
			fetch()
		}
	}
}

// poll performs one numbered fetch and applies it unless a newer one has
// been applied already. It reports whether the result was applied.
func (p *Poller) poll(ctx context.Context) bool {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	transfers, err := p.API.Transfers(ctx, p.Query)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		slog.Warn("polling transfers", "seq", seq, "error", err)
		if p.OnError != nil {
			p.OnError(err)
		}
		return false
	}

	p.mu.Lock()
	if seq <= p.applied {
		p.mu.Unlock()
		slog.Debug("dropping stale transfer list", "seq", seq, "applied", p.applied)
		return false
	}
	p.applied = seq
	p.latest = transfers
	// Hold notifyMu across the handoff so callbacks run in apply order.
	p.notifyMu.Lock()
	p.mu.Unlock()
	defer p.notifyMu.Unlock()

	if p.OnUpdate != nil {
		p.OnUpdate(transfers)
	}
	return true
}
