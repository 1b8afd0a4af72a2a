// Package flow implements the captive-portal payment flow: the five-state
// machine driving plan selection, phone entry, payment initiation and
// transaction status polling.
package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/phone"
)

// API is the slice of the portal surface the flow drives.
type API interface {
	InitiatePayment(ctx context.Context, planID, phone string) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
}

// Config tunes the polling loop started for each payment attempt.
type Config struct {
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Event notifies an observer of a state change. Err is set when the
// transition was caused by a failure (server-reported or timeout).
type Event struct {
	State       State
	Transaction *model.Transaction
	Err         error
}

// InvalidTransitionError is returned when a user action is not valid in
// the current state.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// ErrSubmissionInFlight rejects a second submit while the initiation
// request has not returned. A duplicate submission would trigger a
// duplicate mobile-money prompt on the handset.
var ErrSubmissionInFlight = fmt.Errorf("a payment submission is already in flight")

// Flow is the payment flow state machine. All methods are safe for
// concurrent use; state is guarded by a single mutex and only one
// transaction is ever live at a time.
type Flow struct {
	api        API
	normalizer *phone.Normalizer
	logger     *zap.Logger
	cfg        Config

	// sleep overrides the pollers' timer in tests
	sleep func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	state      State
	plan       *model.Plan
	phone      string
	tx         *model.Transaction
	submitting bool
	poller     *Poller
	observer   func(Event)
}

// New creates a flow in the select-plan state.
func New(api API, normalizer *phone.Normalizer, cfg Config, logger *zap.Logger) *Flow {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = DefaultMaxAttempts
	}
	return &Flow{
		api:        api,
		normalizer: normalizer,
		logger:     logger,
		cfg:        cfg,
		state:      StateSelectPlan,
	}
}

// SetObserver registers a callback invoked on every state change. The
// callback runs with the flow lock held and must not call back into the
// flow.
func (f *Flow) SetObserver(fn func(Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = fn
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Plan returns the currently selected plan, if any.
func (f *Flow) Plan() *model.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plan
}

// Phone returns the canonical phone of the current attempt, if submitted.
func (f *Flow) Phone() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phone
}

// Transaction returns the latest snapshot of the live transaction.
func (f *Flow) Transaction() *model.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tx
}

// SelectPlan moves select-plan -> enter-phone with the chosen plan.
func (f *Flow) SelectPlan(p *model.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !CanTransition(f.state, StateEnterPhone) {
		return &InvalidTransitionError{From: f.state, To: StateEnterPhone}
	}
	f.plan = p
	f.setState(StateEnterPhone)
	return nil
}

// Back moves enter-phone -> select-plan.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Processing and failed also reach select-plan in the table, but only
	// through Retry, which clears the attempt.
	if f.state != StateEnterPhone || !CanTransition(f.state, StateSelectPlan) {
		return &InvalidTransitionError{From: f.state, To: StateSelectPlan}
	}
	f.setState(StateSelectPlan)
	return nil
}

// SubmitPhone validates the phone, initiates the payment and, on
// acceptance, enters processing and starts the status poller. On any
// error the flow stays in enter-phone so the user can resubmit.
func (f *Flow) SubmitPhone(ctx context.Context, raw string) error {
	f.mu.Lock()
	if !CanTransition(f.state, StateProcessing) {
		f.mu.Unlock()
		return &InvalidTransitionError{From: f.state, To: StateProcessing}
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}

	msisdn, err := f.normalizer.Normalize(raw)
	if err != nil {
		f.mu.Unlock()
		return err
	}

	plan := f.plan
	f.submitting = true
	f.mu.Unlock()

	tx, err := f.api.InitiatePayment(ctx, plan.ID, msisdn)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.mu.Unlock()
		return err
	}

	// The user may have navigated away (Back, Retry) while the request
	// was in flight. The table decides whether processing is still
	// reachable; when it is not, the accepted transaction is abandoned.
	if !CanTransition(f.state, StateProcessing) {
		from := f.state
		f.mu.Unlock()
		f.logger.Warn("Discarding payment accepted after the flow moved on",
			zap.String("transaction_id", tx.ID),
			zap.String("state", string(from)))
		return &InvalidTransitionError{From: from, To: StateProcessing}
	}

	// Cancel-on-restart: a poller from a superseded attempt must never
	// touch this one.
	if f.poller != nil {
		f.poller.Cancel()
	}

	f.phone = msisdn
	f.tx = tx
	f.setState(StateProcessing)

	p := NewPoller(f.api, tx.ID, f.cfg.PollInterval, f.cfg.MaxPollAttempts, f.logger)
	if f.sleep != nil {
		p.sleep = f.sleep
	}
	f.poller = p
	f.mu.Unlock()

	p.Start(ctx, f.applyResult)
	return nil
}

// Retry abandons the current attempt: it cancels any live poller, clears
// the stored plan, phone and transaction, and returns to select-plan.
// Valid from failed and from processing.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if (f.state != StateFailed && f.state != StateProcessing) ||
		!CanTransition(f.state, StateSelectPlan) {
		return &InvalidTransitionError{From: f.state, To: StateSelectPlan}
	}
	if f.poller != nil {
		f.poller.Cancel()
		f.poller = nil
	}
	f.plan = nil
	f.phone = ""
	f.tx = nil
	f.setState(StateSelectPlan)
	return nil
}

// applyResult consumes a poller resolution. Resolutions for transactions
// that are no longer live are discarded, so an abandoned poller can never
// update a superseded attempt.
func (f *Flow) applyResult(res Result) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tx == nil || f.tx.ID != res.TransactionID || f.state != StateProcessing {
		f.logger.Debug("Discarding stale poll resolution",
			zap.String("transaction_id", res.TransactionID))
		return
	}

	if res.Err != nil {
		// Timeout: no fresher snapshot than the one we hold.
		f.setStateWithErr(StateFailed, res.Err)
		return
	}

	f.tx = res.Transaction
	if res.Transaction.Status == model.StatusCompleted {
		f.setState(StateSuccess)
		return
	}
	f.setState(StateFailed)
}

func (f *Flow) setState(to State) {
	f.logger.Info("Flow state change",
		zap.String("from", string(f.state)),
		zap.String("to", string(to)))
	f.state = to
	if f.observer != nil {
		f.observer(Event{State: to, Transaction: f.tx})
	}
}

func (f *Flow) setStateWithErr(to State, err error) {
	f.logger.Info("Flow state change",
		zap.String("from", string(f.state)),
		zap.String("to", string(to)),
		zap.Error(err))
	f.state = to
	if f.observer != nil {
		f.observer(Event{State: to, Transaction: f.tx, Err: err})
	}
}
