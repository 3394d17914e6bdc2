// Package flows runs the transient money-movement sequences: payment,
// transfer, withdrawal and merchant collection. Each instance is a small
// state machine (PROCESSING -> SUCCESS|FAILED, with retry and cancel) that
// records to the session ledger exactly once, on success.
package flows

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/ledger"
	"github.com/tappay/wallet-api/internal/models"
	"github.com/tappay/wallet-api/internal/observability"
)

// Kind identifies the money-movement sequence a flow instance runs.
type Kind string

const (
	KindPayment    Kind = "payment"
	KindTransfer   Kind = "transfer"
	KindWithdrawal Kind = "withdrawal"
	KindCollection Kind = "collection"
)

// Status is the lifecycle position of a flow instance.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusCanceled   Status = "CANCELED"
)

var (
	// ErrNotRetryable is returned when retry is requested outside the
	// FAILED state. A succeeded instance is spent.
	ErrNotRetryable = errors.New("flow is not retryable")
	// ErrUnknownRecipient is returned when a transfer names a recipient
	// outside the directory.
	ErrUnknownRecipient = errors.New("unknown recipient")
)

// recipients is the static transfer directory of the demo.
var recipients = []string{"Alice Smith", "Bob Johnson", "Chidi Okafor"}

// Recipients returns the transfer recipient directory.
func Recipients() []string {
	out := make([]string, len(recipients))
	copy(out, recipients)
	return out
}

func knownRecipient(name string) bool {
	for _, r := range recipients {
		if r == name {
			return true
		}
	}
	return false
}

// OutcomeProvider decides whether a simulated settlement attempt succeeds.
// Injecting it lets tests force both branches instead of relying on a
// random draw.
type OutcomeProvider interface {
	Draw() bool
}

// OutcomeFunc adapts a function to an OutcomeProvider.
type OutcomeFunc func() bool

func (f OutcomeFunc) Draw() bool { return f() }

// RandomOutcome succeeds with the given probability.
type RandomOutcome struct {
	SuccessRate float64
}

func (r RandomOutcome) Draw() bool { return rand.Float64() < r.SuccessRate }

// Config carries the settlement simulation knobs shared by all instances of
// a session.
type Config struct {
	// SettleDelay is the artificial settlement latency. Zero is valid.
	SettleDelay time.Duration
	// PaymentOutcome decides payment settlement results. Defaults to a
	// ~90% success draw. Other kinds always settle.
	PaymentOutcome OutcomeProvider
}

func (c Config) paymentOutcome() OutcomeProvider {
	if c.PaymentOutcome != nil {
		return c.PaymentOutcome
	}
	return RandomOutcome{SuccessRate: 0.9}
}

// Params describes the user input that starts a flow.
type Params struct {
	Amount    int64
	Recipient string // transfer only
	Method    string // payment only: NFC or QR
}

// Instance is one run of a money-movement flow. It is single-shot: after a
// success acknowledgement it cannot be restarted.
type Instance struct {
	mu sync.Mutex

	id      string
	kind    Kind
	entry   ledger.Entry
	led     *ledger.Ledger
	outcome OutcomeProvider
	delay   time.Duration

	status Status
	errMsg string
	result models.Transaction

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// State is a read-only snapshot of an instance.
type State struct {
	ID          string              `json:"id"`
	Kind        Kind                `json:"kind"`
	Status      Status              `json:"status"`
	Amount      int64               `json:"amount"`
	Recipient   string              `json:"recipient,omitempty"`
	Error       string              `json:"error,omitempty"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// New validates params and creates an instance in PROCESSING, launching the
// settlement simulation. The instance stops mutating anything once cancelled.
func New(cfg Config, kind Kind, p Params, led *ledger.Ledger) (*Instance, error) {
	if p.Amount <= 0 {
		return nil, fmt.Errorf("invalid amount: %d", p.Amount)
	}

	var entry ledger.Entry
	outcome := OutcomeProvider(OutcomeFunc(func() bool { return true }))

	switch kind {
	case KindPayment:
		description := "NFC Payment"
		if p.Method == "QR" {
			description = "QR Payment"
		}
		entry = ledger.Entry{Type: domain.TxTypePayment, Amount: p.Amount, Description: description}
		outcome = cfg.paymentOutcome()
	case KindTransfer:
		if !knownRecipient(p.Recipient) {
			return nil, ErrUnknownRecipient
		}
		entry = ledger.Entry{
			Type:        domain.TxTypeTransfer,
			Amount:      p.Amount,
			Description: "To " + p.Recipient,
			Recipient:   p.Recipient,
		}
	case KindWithdrawal:
		entry = ledger.Entry{Type: domain.TxTypeWithdraw, Amount: p.Amount, Description: "Bank Settlement"}
	case KindCollection:
		entry = ledger.Entry{Type: domain.TxTypeReceive, Amount: p.Amount, Description: "Soft POS Collection"}
	default:
		return nil, fmt.Errorf("unknown flow kind: %q", kind)
	}

	ctx, cancel := context.WithCancel(context.Background())
	inst := &Instance{
		id:      uuid.NewString(),
		kind:    kind,
		entry:   entry,
		led:     led,
		outcome: outcome,
		delay:   cfg.SettleDelay,
		status:  StatusProcessing,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go inst.settle(inst.done)
	return inst, nil
}

// ID returns the instance identifier.
func (i *Instance) ID() string { return i.id }

// Kind returns the flow kind.
func (i *Instance) Kind() Kind { return i.kind }

// State returns the current snapshot.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	st := State{
		ID:        i.id,
		Kind:      i.kind,
		Status:    i.status,
		Amount:    i.entry.Amount,
		Recipient: i.entry.Recipient,
		Error:     i.errMsg,
	}
	if i.status == StatusSuccess {
		tx := i.result
		st.Transaction = &tx
	}
	return st
}

// Retry re-enters PROCESSING after a failed settlement. The failed attempt
// left no side effects, so the retry starts clean.
func (i *Instance) Retry() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status != StatusFailed {
		return ErrNotRetryable
	}
	i.status = StatusProcessing
	i.errMsg = ""
	i.done = make(chan struct{})
	go i.settle(i.done)
	return nil
}

// Cancel abandons the flow. A cancelled flow's pending settlement never
// mutates the ledger, even when its timer later elapses.
func (i *Instance) Cancel() {
	i.cancel()
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status == StatusProcessing || i.status == StatusFailed {
		i.status = StatusCanceled
		observability.IncrementFlowOutcome(string(i.kind), "canceled")
	}
}

// Wait blocks until the current settlement attempt reaches a terminal state
// or ctx expires.
func (i *Instance) Wait(ctx context.Context) error {
	i.mu.Lock()
	done := i.done
	i.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Instance) settle(done chan struct{}) {
	defer close(done)

	if i.delay > 0 {
		select {
		case <-time.After(i.delay):
		case <-i.ctx.Done():
			return
		}
	}

	accepted := i.outcome.Draw()

	i.mu.Lock()
	defer i.mu.Unlock()
	// Checked immediately before the ledger mutation: a flow abandoned
	// during the delay must not move money.
	if i.ctx.Err() != nil || i.status != StatusProcessing {
		return
	}
	if !accepted {
		i.status = StatusFailed
		i.errMsg = domain.ErrGatewayFailure.Error()
		observability.IncrementFlowOutcome(string(i.kind), "failed")
		return
	}

	tx, err := i.led.Record(i.entry)
	if err != nil {
		i.status = StatusFailed
		i.errMsg = err.Error()
		observability.IncrementFlowOutcome(string(i.kind), "rejected")
		return
	}
	i.status = StatusSuccess
	i.result = tx
	observability.IncrementLedgerRecord(i.entry.Type)
	observability.IncrementFlowOutcome(string(i.kind), "success")
}
