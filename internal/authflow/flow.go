// Package authflow drives the authentication step-machine: identity
// verification, PIN issuance and biometric opt-in for signup, plus the
// parallel PIN-reset path. A flow instance runs to a terminal outcome
// exactly once and then only reports its state.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/tappay/wallet-api/internal/credential"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/observability"
	"go.uber.org/zap"
)

const (
	pinLength = 4
	// resendWindow is how many seconds must elapse before a fresh
	// one-time code may be requested.
	resendWindow = 30
)

var (
	// ErrBusy is returned while a submitted check is still pending. Each
	// flow accepts exactly one in-flight check at a time.
	ErrBusy = errors.New("verification in progress")
	// ErrInvalidAction is returned when an action is not available at the
	// current step.
	ErrInvalidAction = errors.New("action not available at this step")
	// ErrResendUnavailable is returned while the resend countdown is
	// still running.
	ErrResendUnavailable = errors.New("resend not yet available")
)

// Flow is one run of the authentication step-machine. All state is held in
// memory; nothing survives the instance.
type Flow struct {
	mu    sync.Mutex
	creds credential.Store

	step          Step
	registering   bool
	identifier    string
	candidate     string
	otp           string
	loading       bool
	lastError     string
	authenticated bool
	biometrics    bool
	resendStarted time.Time

	checkDelay time.Duration
	now        func() time.Time
}

// Option configures a Flow.
type Option func(*Flow)

// WithCheckDelay sets the artificial latency applied to identifier and PIN
// checks. Zero disables the delay; correctness does not depend on it.
func WithCheckDelay(d time.Duration) Option {
	return func(f *Flow) { f.checkDelay = d }
}

// WithClock overrides the time source for the resend countdown.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// New creates a flow at the WELCOME step.
func New(creds credential.Store, opts ...Option) *Flow {
	f := &Flow{
		creds:      creds,
		step:       StepWelcome,
		checkDelay: 800 * time.Millisecond,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State is a read-only snapshot of the flow.
type State struct {
	Step          Step   `json:"step"`
	Registering   bool   `json:"registering"`
	Identifier    string `json:"identifier,omitempty"`
	Loading       bool   `json:"loading"`
	Authenticated bool   `json:"authenticated"`
	Biometrics    bool   `json:"biometrics_enabled"`
	ResendIn      int    `json:"resend_in,omitempty"`
	Error         string `json:"error,omitempty"`
}

// State returns the current snapshot.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		Step:          f.step,
		Registering:   f.registering,
		Identifier:    f.identifier,
		Loading:       f.loading,
		Authenticated: f.authenticated,
		Biometrics:    f.biometrics,
		ResendIn:      f.resendRemaining(),
		Error:         f.lastError,
	}
}

// Authenticated reports whether the flow reached its terminal outcome.
func (f *Flow) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

// Identifier returns the identifier the flow authenticated (or is
// authenticating) as.
func (f *Flow) Identifier() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identifier
}

// BiometricsEnabled reports the biometric opt-in choice made during signup.
func (f *Flow) BiometricsEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.biometrics
}

// Select leaves WELCOME for identifier entry, in sign-in or registration
// mode. It also serves the unconditional RESET_SUCCESS exit, which always
// lands in sign-in mode.
func (f *Flow) Select(register bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return ErrBusy
	}
	switch f.step {
	case StepWelcome:
		f.registering = register
	case StepResetSuccess:
		f.registering = false
	default:
		return ErrInvalidAction
	}
	f.lastError = ""
	f.setStep(StepLoginRegister)
	return nil
}

// SubmitIdentifier runs the identifier check for LOGIN_REGISTER or
// FORGOT_PIN. While the check is pending the flow is loading and rejects all
// other actions. Guard failures keep the step unchanged and surface as flow
// errors.
func (f *Flow) SubmitIdentifier(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)

	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.step != StepLoginRegister && f.step != StepForgotPIN {
		f.mu.Unlock()
		return ErrInvalidAction
	}
	if identifier == "" {
		f.mu.Unlock()
		return errors.New("identifier is required")
	}
	step := f.step
	registering := f.registering
	f.identifier = identifier
	f.lastError = ""
	f.loading = true
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		f.clearLoading()
		return err
	}
	exists, lookupErr := f.creds.Exists(ctx, identifier)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if lookupErr != nil {
		return fmt.Errorf("identifier check: %w", lookupErr)
	}

	if step == StepForgotPIN {
		if !exists {
			return f.fail(domain.ErrAccountNotFound)
		}
		f.enterOTP(StepResetOTP)
		return nil
	}

	if registering {
		if exists {
			return f.fail(domain.ErrAccountExists)
		}
		f.enterOTP(StepOTP)
		return nil
	}
	if !exists {
		return f.fail(domain.ErrAccountNotFound)
	}
	f.setStep(StepLoginPIN)
	return nil
}

// ForgotPIN branches from sign-in identifier entry into the reset path.
func (f *Flow) ForgotPIN() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return ErrBusy
	}
	if f.step != StepLoginRegister && f.step != StepLoginPIN {
		return ErrInvalidAction
	}
	if f.registering {
		return ErrInvalidAction
	}
	f.lastError = ""
	f.setStep(StepForgotPIN)
	return nil
}

// SubmitPIN handles the PIN entry for whichever PIN step is active: sign-in
// verification, candidate capture, or confirmation.
func (f *Flow) SubmitPIN(ctx context.Context, pin string) error {
	if !allDigits(pin) || len(pin) != pinLength {
		return fmt.Errorf("PIN must be %d digits", pinLength)
	}

	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	switch f.step {
	case StepLoginPIN:
		f.lastError = ""
		f.loading = true
		identifier := f.identifier
		f.mu.Unlock()
		return f.verifyLoginPIN(ctx, identifier, pin)
	case StepCreatePIN:
		f.candidate = pin
		f.lastError = ""
		f.setStep(StepConfirmPIN)
		f.mu.Unlock()
		return nil
	case StepResetCreatePIN:
		f.candidate = pin
		f.lastError = ""
		f.setStep(StepResetConfirmPIN)
		f.mu.Unlock()
		return nil
	case StepConfirmPIN, StepResetConfirmPIN:
		defer f.mu.Unlock()
		return f.confirmPIN(ctx, pin)
	default:
		f.mu.Unlock()
		return ErrInvalidAction
	}
}

func (f *Flow) verifyLoginPIN(ctx context.Context, identifier, pin string) error {
	if err := f.wait(ctx); err != nil {
		f.clearLoading()
		return err
	}
	ok, verifyErr := f.creds.Verify(ctx, identifier, pin)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if verifyErr != nil && !errors.Is(verifyErr, credential.ErrNotFound) {
		return fmt.Errorf("pin check: %w", verifyErr)
	}
	if !ok {
		// Stay on LOGIN_PIN; the entered value is discarded client-side.
		// No lockout or attempt counting.
		return f.fail(domain.ErrPINMismatch)
	}
	f.authenticated = true
	observability.IncrementAuthOutcome("login")
	return nil
}

// confirmPIN is called with the lock held.
func (f *Flow) confirmPIN(ctx context.Context, pin string) error {
	if pin != f.candidate {
		return f.fail(domain.ErrPINConfirmMismatch)
	}
	if err := f.creds.Enroll(ctx, f.identifier, pin); err != nil {
		return fmt.Errorf("enroll credential: %w", err)
	}
	f.lastError = ""
	f.candidate = ""
	if f.step == StepResetConfirmPIN {
		f.setStep(StepResetSuccess)
	} else {
		f.setStep(StepBiometrics)
	}
	return nil
}

// SubmitOTP accepts the one-time code. Any code of the required length
// passes; the dispatched code is never checked. That is deliberate demo
// behavior, preserved here.
func (f *Flow) SubmitOTP(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return ErrBusy
	}
	if f.step != StepOTP && f.step != StepResetOTP {
		return ErrInvalidAction
	}
	required := otpLength(f.step)
	if !allDigits(code) || len(code) != required {
		return fmt.Errorf("code must be %d digits", required)
	}
	f.lastError = ""
	if f.step == StepResetOTP {
		f.setStep(StepResetCreatePIN)
	} else {
		f.setStep(StepCreatePIN)
	}
	return nil
}

// Resend issues a fresh one-time code once the countdown has elapsed and
// restarts the countdown. Authentication state is untouched.
func (f *Flow) Resend() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepOTP && f.step != StepResetOTP {
		return ErrInvalidAction
	}
	if f.resendRemaining() > 0 {
		return ErrResendUnavailable
	}
	f.issueOTP()
	return nil
}

// Biometrics records the opt-in choice and completes the signup path. Both
// enabling and skipping authenticate.
func (f *Flow) Biometrics(enable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepBiometrics {
		return ErrInvalidAction
	}
	f.biometrics = enable
	f.authenticated = true
	observability.IncrementAuthOutcome("signup")
	return nil
}

// Back navigates to the fixed predecessor of the current step, discarding
// data entered in the current step only.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return ErrBusy
	}
	prev, ok := predecessors[f.step]
	if !ok {
		return ErrInvalidAction
	}
	switch f.step {
	case StepConfirmPIN, StepResetConfirmPIN:
		f.candidate = ""
	case StepLoginRegister, StepForgotPIN:
		f.identifier = ""
	}
	f.lastError = ""
	f.setStep(prev)
	return nil
}

// fail records a guard failure without leaving the current step. Called with
// the lock held.
func (f *Flow) fail(err error) error {
	f.lastError = err.Error()
	return err
}

// setStep transitions and records the edge. Called with the lock held.
func (f *Flow) setStep(next Step) {
	observability.IncrementAuthStep(string(f.step), string(next))
	f.step = next
}

// enterOTP transitions to an OTP step, issuing a code and starting the
// resend countdown. Called with the lock held.
func (f *Flow) enterOTP(step Step) {
	f.setStep(step)
	f.issueOTP()
}

// issueOTP generates a code of the step's required length. The code is
// logged for operators but never validated against the submitted value.
// Called with the lock held.
func (f *Flow) issueOTP() {
	n := otpLength(f.step)
	digits := make([]byte, n)
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	f.otp = string(digits)
	f.resendStarted = f.now()
	zap.L().Debug("one-time code issued",
		zap.String("identifier", f.identifier),
		zap.String("code", f.otp),
	)
}

// resendRemaining returns the countdown in whole seconds. Called with the
// lock held.
func (f *Flow) resendRemaining() int {
	if f.step != StepOTP && f.step != StepResetOTP {
		return 0
	}
	elapsed := int(f.now().Sub(f.resendStarted) / time.Second)
	if elapsed >= resendWindow {
		return 0
	}
	return resendWindow - elapsed
}

func (f *Flow) clearLoading() {
	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()
}

func (f *Flow) wait(ctx context.Context) error {
	if f.checkDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.checkDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
