package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/hotspotpay/captive-portal/internal/domain/errors"
	"github.com/hotspotpay/captive-portal/internal/domain/model"
)

// scriptedFetcher returns canned responses per poll, in order. Once the
// script runs out it keeps returning the last entry.
type scriptedFetcher struct {
	script []func() (*model.Transaction, error)
	calls  int
}

func (s *scriptedFetcher) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i]()
}

func pending(id string) func() (*model.Transaction, error) {
	return func() (*model.Transaction, error) {
		return &model.Transaction{ID: id, Status: model.StatusPending}, nil
	}
}

func completed(id string) func() (*model.Transaction, error) {
	return func() (*model.Transaction, error) {
		return &model.Transaction{ID: id, Status: model.StatusCompleted}, nil
	}
}

func failed(id, desc string) func() (*model.Transaction, error) {
	return func() (*model.Transaction, error) {
		return &model.Transaction{ID: id, Status: model.StatusFailed, Description: &desc}, nil
	}
}

// instantSleep replaces the poll delay and records simulated elapsed time.
type instantSleep struct {
	elapsed time.Duration
	waits   int
}

func (s *instantSleep) sleep(ctx context.Context, d time.Duration) error {
	s.waits++
	s.elapsed += d
	return nil
}

func startPoller(t *testing.T, fetcher StatusFetcher, id string, maxAttempts int) (*Poller, *instantSleep, chan Result) {
	t.Helper()
	p := NewPoller(fetcher, id, 3*time.Second, maxAttempts, zap.NewNop())
	clock := &instantSleep{}
	p.sleep = clock.sleep
	results := make(chan Result, 1)
	p.Start(context.Background(), func(r Result) { results <- r })
	return p, clock, results
}

func waitDone(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not finish")
	}
}

func TestPollerResolvesOnFifthPoll(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*model.Transaction, error){
		pending("tx-1"), pending("tx-1"), pending("tx-1"), pending("tx-1"), completed("tx-1"),
	}}

	p, clock, results := startPoller(t, fetcher, "tx-1", 30)
	waitDone(t, p)

	res := <-results
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusCompleted, res.Transaction.Status)

	assert.Equal(t, 5, fetcher.calls, "no sixth poll may be issued")
	assert.Equal(t, 5, p.Attempts())
	assert.LessOrEqual(t, clock.elapsed, 5*3*time.Second)
}

func TestPollerTimesOutAfterThirtyAttempts(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*model.Transaction, error){pending("tx-1")}}

	p, clock, results := startPoller(t, fetcher, "tx-1", 30)
	waitDone(t, p)

	res := <-results
	require.Error(t, res.Err)
	assert.Nil(t, res.Transaction)

	var timeout *domainErrors.PollTimeoutError
	require.ErrorAs(t, res.Err, &timeout)
	assert.Equal(t, 30, timeout.Attempts)

	assert.Equal(t, 30, fetcher.calls, "no 31st poll may be issued")
	assert.Equal(t, 30*3*time.Second, clock.elapsed)
}

func TestPollerAbsorbsTransientErrors(t *testing.T) {
	blip := errors.New("connection reset")
	fetcher := &scriptedFetcher{script: []func() (*model.Transaction, error){
		pending("tx-1"),
		func() (*model.Transaction, error) { return nil, blip },
		func() (*model.Transaction, error) { return nil, blip },
		completed("tx-1"),
	}}

	p, _, results := startPoller(t, fetcher, "tx-1", 30)
	waitDone(t, p)

	res := <-results
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusCompleted, res.Transaction.Status)
	// the blips still consumed attempts
	assert.Equal(t, 4, p.Attempts())
}

func TestPollerTransientErrorsCountAgainstBudget(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*model.Transaction, error){
		func() (*model.Transaction, error) { return nil, errors.New("blip") },
	}}

	p, _, results := startPoller(t, fetcher, "tx-1", 5)
	waitDone(t, p)

	res := <-results
	var timeout *domainErrors.PollTimeoutError
	require.ErrorAs(t, res.Err, &timeout)
	assert.Equal(t, 5, timeout.Attempts)
}

func TestPollerTreatsUnknownStatusAsNonTerminal(t *testing.T) {
	odd := func() (*model.Transaction, error) {
		return &model.Transaction{ID: "tx-1", Status: "AWAITING_CONFIRMATION"}, nil
	}
	fetcher := &scriptedFetcher{script: []func() (*model.Transaction, error){
		odd, odd, failed("tx-1", "Request cancelled by user"),
	}}

	p, _, results := startPoller(t, fetcher, "tx-1", 30)
	waitDone(t, p)

	res := <-results
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusFailed, res.Transaction.Status)
	assert.Equal(t, 3, p.Attempts())
}

func TestPollerCancelStopsLoopWithoutDelivery(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*model.Transaction, error){pending("tx-1")}}

	p := NewPoller(fetcher, "tx-1", 3*time.Second, 30, zap.NewNop())
	gate := make(chan struct{})
	p.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-gate:
			return nil
		case <-p.cancelled:
			return context.Canceled
		}
	}

	delivered := make(chan Result, 1)
	p.Start(context.Background(), func(r Result) { delivered <- r })

	p.Cancel()
	waitDone(t, p)

	select {
	case r := <-delivered:
		t.Fatalf("cancelled poller delivered a result: %+v", r)
	default:
	}
	assert.Equal(t, 0, fetcher.calls)
}
