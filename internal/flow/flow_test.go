package flow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/hotspotpay/captive-portal/internal/domain/errors"
	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/phone"
)

// fakeAPI scripts transaction status per ID and records initiations.
type fakeAPI struct {
	mu          sync.Mutex
	nextTxID    string
	initiateErr error
	initiations int
	statuses    map[string][]string // consumed head-first; last entry repeats
	gates       map[string]chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		statuses: make(map[string][]string),
		gates:    make(map[string]chan struct{}),
	}
}

func (a *fakeAPI) InitiatePayment(ctx context.Context, planID, msisdn string) (*model.Transaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initiations++
	if a.initiateErr != nil {
		return nil, a.initiateErr
	}
	return &model.Transaction{ID: a.nextTxID, PlanID: planID, Phone: msisdn, Status: model.StatusPending}, nil
}

func (a *fakeAPI) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	a.mu.Lock()
	gate := a.gates[id]
	a.mu.Unlock()
	if gate != nil {
		<-gate
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	script := a.statuses[id]
	status := model.StatusPending
	if len(script) > 0 {
		status = script[0]
		if len(script) > 1 {
			a.statuses[id] = script[1:]
		}
	}
	return &model.Transaction{ID: id, Status: status}, nil
}

func instant(ctx context.Context, d time.Duration) error { return nil }

func newTestFlow(api API) *Flow {
	f := New(api, phone.NewNormalizer("254"), Config{PollInterval: 3 * time.Second, MaxPollAttempts: 30}, zap.NewNop())
	f.sleep = instant
	return f
}

func terminalEvents(f *Flow) chan Event {
	events := make(chan Event, 4)
	f.SetObserver(func(e Event) {
		if e.State == StateSuccess || e.State == StateFailed {
			events <- e
		}
	})
	return events
}

func waitTerminal(t *testing.T, events chan Event) Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("flow did not reach a terminal state")
		return Event{}
	}
}

func hourly() *model.Plan {
	return &model.Plan{ID: "p1", Name: "1 Hour", Price: 20, IsActive: true}
}

func TestFlowHappyPath(t *testing.T) {
	api := newFakeAPI()
	api.nextTxID = "tx-1"
	api.statuses["tx-1"] = []string{model.StatusPending, model.StatusPending, model.StatusCompleted}

	f := newTestFlow(api)
	events := terminalEvents(f)

	require.Equal(t, StateSelectPlan, f.State())
	require.NoError(t, f.SelectPlan(hourly()))
	require.Equal(t, StateEnterPhone, f.State())

	require.NoError(t, f.SubmitPhone(context.Background(), "0712 345 678"))
	e := waitTerminal(t, events)
	assert.Equal(t, StateSuccess, e.State)
	assert.Equal(t, StateSuccess, f.State())
	assert.Equal(t, "254712345678", f.Phone())
	require.NotNil(t, f.Transaction())
	assert.Equal(t, model.StatusCompleted, f.Transaction().Status)
}

func TestFlowServerReportedFailure(t *testing.T) {
	api := newFakeAPI()
	api.nextTxID = "tx-1"
	api.statuses["tx-1"] = []string{model.StatusFailed}

	f := newTestFlow(api)
	events := terminalEvents(f)

	require.NoError(t, f.SelectPlan(hourly()))
	require.NoError(t, f.SubmitPhone(context.Background(), "0712345678"))

	e := waitTerminal(t, events)
	assert.Equal(t, StateFailed, e.State)
	assert.NoError(t, e.Err)
	assert.Equal(t, model.StatusFailed, f.Transaction().Status)
}

func TestFlowPollingTimeout(t *testing.T) {
	api := newFakeAPI()
	api.nextTxID = "tx-1" // stays PENDING forever

	f := newTestFlow(api)
	events := terminalEvents(f)

	require.NoError(t, f.SelectPlan(hourly()))
	require.NoError(t, f.SubmitPhone(context.Background(), "0712345678"))

	e := waitTerminal(t, events)
	assert.Equal(t, StateFailed, e.State)
	var timeout *domainErrors.PollTimeoutError
	require.ErrorAs(t, e.Err, &timeout)
	assert.Equal(t, 30, timeout.Attempts)
}

func TestFlowInvalidPhoneMakesNoNetworkCall(t *testing.T) {
	api := newFakeAPI()
	f := newTestFlow(api)

	require.NoError(t, f.SelectPlan(hourly()))
	err := f.SubmitPhone(context.Background(), "12345")

	var invalid *domainErrors.InvalidPhoneNumberError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, StateEnterPhone, f.State(), "flow must stay in enter-phone")
	assert.Equal(t, 0, api.initiations, "no initiation request may be made")
}

func TestFlowInitiationFailureStaysInEnterPhone(t *testing.T) {
	api := newFakeAPI()
	api.initiateErr = domainErrors.NewPaymentInitiationError(502, "gateway unreachable")

	f := newTestFlow(api)
	require.NoError(t, f.SelectPlan(hourly()))

	err := f.SubmitPhone(context.Background(), "0712345678")
	var initErr *domainErrors.PaymentInitiationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, StateEnterPhone, f.State())

	// the user can resubmit
	api.mu.Lock()
	api.initiateErr = nil
	api.nextTxID = "tx-2"
	api.statuses["tx-2"] = []string{model.StatusCompleted}
	api.mu.Unlock()
	events := terminalEvents(f)
	require.NoError(t, f.SubmitPhone(context.Background(), "0712345678"))
	assert.Equal(t, StateSuccess, waitTerminal(t, events).State)
}

func TestFlowRetryClearsAttemptState(t *testing.T) {
	api := newFakeAPI()
	api.nextTxID = "tx-1"
	api.statuses["tx-1"] = []string{model.StatusFailed}

	f := newTestFlow(api)
	events := terminalEvents(f)

	require.NoError(t, f.SelectPlan(hourly()))
	require.NoError(t, f.SubmitPhone(context.Background(), "0712345678"))
	waitTerminal(t, events)
	require.Equal(t, StateFailed, f.State())

	require.NoError(t, f.Retry())
	assert.Equal(t, StateSelectPlan, f.State())
	assert.Nil(t, f.Plan())
	assert.Empty(t, f.Phone())
	assert.Nil(t, f.Transaction())

	// a fresh attempt is unaffected by the prior one
	api.mu.Lock()
	api.nextTxID = "tx-2"
	api.statuses["tx-2"] = []string{model.StatusCompleted}
	api.mu.Unlock()
	require.NoError(t, f.SelectPlan(hourly()))
	require.NoError(t, f.SubmitPhone(context.Background(), "0712345678"))
	e := waitTerminal(t, events)
	assert.Equal(t, StateSuccess, e.State)
	assert.Equal(t, "tx-2", f.Transaction().ID)
}

func TestFlowStalePollerCannotTouchNewAttempt(t *testing.T) {
	api := newFakeAPI()
	api.nextTxID = "tx-1"
	gate := make(chan struct{})
	api.gates["tx-1"] = gate
	api.statuses["tx-1"] = []string{model.StatusFailed} // would fail the flow if applied

	f := newTestFlow(api)
	events := terminalEvents(f)

	require.NoError(t, f.SelectPlan(hourly()))
	require.NoError(t, f.SubmitPhone(context.Background(), "0712345678"))
	require.Equal(t, StateProcessing, f.State())
	firstPoller := f.poller

	// abandon the attempt while its poller is blocked mid-poll
	require.NoError(t, f.Retry())

	api.mu.Lock()
	api.nextTxID = "tx-2"
	api.statuses["tx-2"] = []string{model.StatusCompleted}
	api.mu.Unlock()
	require.NoError(t, f.SelectPlan(hourly()))
	require.NoError(t, f.SubmitPhone(context.Background(), "0712345678"))

	// let the stale poller's request come back now
	close(gate)
	select {
	case <-firstPoller.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stale poller did not exit")
	}

	e := waitTerminal(t, events)
	assert.Equal(t, StateSuccess, e.State)
	assert.Equal(t, "tx-2", f.Transaction().ID)
	assert.Equal(t, StateSuccess, f.State(), "stale FAILED resolution must not override the new attempt")
}

func TestFlowBack(t *testing.T) {
	f := newTestFlow(newFakeAPI())

	require.NoError(t, f.SelectPlan(hourly()))
	require.NoError(t, f.Back())
	assert.Equal(t, StateSelectPlan, f.State())
}

func TestFlowRejectsInvalidTransitions(t *testing.T) {
	f := newTestFlow(newFakeAPI())

	var invalid *InvalidTransitionError
	assert.ErrorAs(t, f.Back(), &invalid)
	assert.ErrorAs(t, f.Retry(), &invalid)
	assert.ErrorAs(t, f.SubmitPhone(context.Background(), "0712345678"), &invalid)

	require.NoError(t, f.SelectPlan(hourly()))
	assert.ErrorAs(t, f.SelectPlan(hourly()), &invalid)
}

func TestCanTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StateSelectPlan, StateEnterPhone))
	assert.True(t, CanTransition(StateEnterPhone, StateProcessing))
	assert.True(t, CanTransition(StateProcessing, StateSuccess))
	assert.True(t, CanTransition(StateFailed, StateSelectPlan))

	assert.False(t, CanTransition(StateSuccess, StateSelectPlan), "success is terminal")
	assert.False(t, CanTransition(StateSelectPlan, StateProcessing))
	assert.False(t, CanTransition(StateFailed, StateEnterPhone))
}

// blockingInitAPI parks InitiatePayment until released, so a second
// submit can be attempted while the first is in flight.
type blockingInitAPI struct {
	fakeAPI
	started chan struct{}
	release chan struct{}
}

func (a *blockingInitAPI) InitiatePayment(ctx context.Context, planID, msisdn string) (*model.Transaction, error) {
	a.started <- struct{}{}
	<-a.release
	return a.fakeAPI.InitiatePayment(ctx, planID, msisdn)
}

func TestFlowRejectsDuplicateSubmission(t *testing.T) {
	api := &blockingInitAPI{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	api.fakeAPI.statuses = map[string][]string{"tx-1": {model.StatusCompleted}}
	api.fakeAPI.gates = map[string]chan struct{}{}
	api.fakeAPI.nextTxID = "tx-1"

	f := newTestFlow(api)
	events := terminalEvents(f)
	require.NoError(t, f.SelectPlan(hourly()))

	firstDone := make(chan error, 1)
	go func() { firstDone <- f.SubmitPhone(context.Background(), "0712345678") }()
	<-api.started

	// second submit while the first request is in flight
	err := f.SubmitPhone(context.Background(), "0712345678")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(api.release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, StateSuccess, waitTerminal(t, events).State)
	assert.Equal(t, 1, api.fakeAPI.initiations, "exactly one creation request per user submission")
}

func TestFlowAbandonsSubmissionAfterBack(t *testing.T) {
	api := &blockingInitAPI{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	api.fakeAPI.statuses = map[string][]string{"tx-1": {model.StatusCompleted}}
	api.fakeAPI.gates = map[string]chan struct{}{}
	api.fakeAPI.nextTxID = "tx-1"

	f := newTestFlow(api)
	require.NoError(t, f.SelectPlan(hourly()))

	firstDone := make(chan error, 1)
	go func() { firstDone <- f.SubmitPhone(context.Background(), "0712345678") }()
	<-api.started

	// user backs out while the initiation request is still in flight
	require.NoError(t, f.Back())
	assert.Equal(t, StateSelectPlan, f.State())

	close(api.release)

	var invalid *InvalidTransitionError
	require.ErrorAs(t, <-firstDone, &invalid)
	assert.Equal(t, StateSelectPlan, invalid.From)
	assert.Equal(t, StateProcessing, invalid.To)

	// the abandoned acceptance never enters processing or starts polling
	assert.Equal(t, StateSelectPlan, f.State())
	assert.Nil(t, f.Transaction())
}
