package flow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/domain/errors"
	"github.com/hotspotpay/captive-portal/internal/domain/model"
)

const (
	// DefaultPollInterval is the fixed delay between status polls.
	// Mobile-money confirmation latency is bounded, so a fixed cadence
	// beats backoff here.
	DefaultPollInterval = 3 * time.Second

	// DefaultMaxAttempts caps the polling budget at 30 attempts,
	// bounding a run to 90 seconds of wall clock.
	DefaultMaxAttempts = 30
)

// StatusFetcher retrieves the current snapshot of a transaction.
type StatusFetcher interface {
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
}

// Result is a poller's single terminal resolution. Transaction is nil and
// Err holds a PollTimeoutError when the attempt budget ran out.
type Result struct {
	TransactionID string
	Transaction   *model.Transaction
	Err           error
}

// Poller drives the status loop for exactly one transaction. It polls
// sequentially: each cycle waits the interval, fetches once, and only then
// schedules the next cycle, so responses are consumed in send order. A
// transient fetch error counts against the budget like a non-terminal
// response.
type Poller struct {
	fetcher     StatusFetcher
	logger      *zap.Logger
	interval    time.Duration
	maxAttempts int

	// sleep is swapped in tests to avoid real timers
	sleep func(ctx context.Context, d time.Duration) error

	transactionID string
	attempt       int

	cancelOnce sync.Once
	cancelled  chan struct{}
	done       chan struct{}
}

// NewPoller creates a poller for the transaction. Zero interval or
// attempts fall back to the defaults.
func NewPoller(fetcher StatusFetcher, transactionID string, interval time.Duration, maxAttempts int, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	p := &Poller{
		fetcher:       fetcher,
		logger:        logger,
		interval:      interval,
		maxAttempts:   maxAttempts,
		transactionID: transactionID,
		cancelled:     make(chan struct{}),
		done:          make(chan struct{}),
	}
	p.sleep = p.waitInterval
	return p
}

// Start launches the polling loop. deliver is invoked at most once, from
// the poller's goroutine, and never after Cancel has been observed.
func (p *Poller) Start(ctx context.Context, deliver func(Result)) {
	go p.run(ctx, deliver)
}

// Cancel stops the loop. Safe to call more than once and after resolution.
func (p *Poller) Cancel() {
	p.cancelOnce.Do(func() {
		close(p.cancelled)
	})
}

// Done is closed once the loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Attempts reports how many polls were issued. Valid once Done is closed.
func (p *Poller) Attempts() int {
	return p.attempt
}

func (p *Poller) run(ctx context.Context, deliver func(Result)) {
	defer close(p.done)

	for p.attempt < p.maxAttempts {
		if err := p.sleep(ctx, p.interval); err != nil {
			return
		}
		if p.isCancelled() {
			return
		}

		p.attempt++
		tx, err := p.fetcher.GetTransaction(ctx, p.transactionID)
		if err != nil {
			// Transient blip: absorbed, but the attempt is spent.
			p.logger.Debug("Transaction poll failed",
				zap.String("transaction_id", p.transactionID),
				zap.Int("attempt", p.attempt),
				zap.Error(err))
			continue
		}

		if tx.IsTerminal() {
			if p.isCancelled() {
				return
			}
			p.logger.Info("Transaction resolved",
				zap.String("transaction_id", p.transactionID),
				zap.String("status", tx.Status),
				zap.Int("attempts", p.attempt))
			deliver(Result{TransactionID: p.transactionID, Transaction: tx})
			return
		}
		// Unrecognized statuses are non-terminal: keep polling.
	}

	if p.isCancelled() {
		return
	}
	p.logger.Warn("Transaction polling timed out",
		zap.String("transaction_id", p.transactionID),
		zap.Int("attempts", p.attempt))
	deliver(Result{
		TransactionID: p.transactionID,
		Err:           errors.NewPollTimeoutError(p.transactionID, p.attempt),
	})
}

func (p *Poller) waitInterval(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.cancelled:
		return context.Canceled
	}
}

func (p *Poller) isCancelled() bool {
	select {
	case <-p.cancelled:
		return true
	default:
		return false
	}
}
