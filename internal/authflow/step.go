package authflow

// Step identifies the user's position in the onboarding/reset flow.
// Exactly one step is active per flow instance.
type Step string

const (
	StepWelcome         Step = "WELCOME"
	StepLoginRegister   Step = "LOGIN_REGISTER"
	StepLoginPIN        Step = "LOGIN_PIN"
	StepOTP             Step = "OTP"
	StepCreatePIN       Step = "CREATE_PIN"
	StepConfirmPIN      Step = "CONFIRM_PIN"
	StepBiometrics      Step = "BIOMETRICS"
	StepForgotPIN       Step = "FORGOT_PIN"
	StepResetOTP        Step = "RESET_OTP"
	StepResetCreatePIN  Step = "RESET_CREATE_PIN"
	StepResetConfirmPIN Step = "RESET_CONFIRM_PIN"
	StepResetSuccess    Step = "RESET_SUCCESS"
)

// predecessors is the fixed back-navigation mapping. Steps absent from the
// map have no back action. Going back discards data entered in the current
// step only; it never restarts the whole flow.
var predecessors = map[Step]Step{
	StepLoginRegister:   StepWelcome,
	StepLoginPIN:        StepLoginRegister,
	StepForgotPIN:       StepLoginRegister,
	StepOTP:             StepLoginRegister,
	StepResetOTP:        StepForgotPIN,
	StepCreatePIN:       StepOTP,
	StepResetCreatePIN:  StepResetOTP,
	StepConfirmPIN:      StepCreatePIN,
	StepResetConfirmPIN: StepResetCreatePIN,
}

// otpLength returns the one-time-code length required at an OTP step:
// 4 digits during signup, 6 during a PIN reset.
func otpLength(step Step) int {
	if step == StepResetOTP {
		return 6
	}
	return 4
}
