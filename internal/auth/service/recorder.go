package service

import "errors"

// Recorder receives authentication outcomes for metrics.
type Recorder interface {
	LoginAttempt(outcome string)
	TwoFactorAttempt(outcome string)
	RefreshAttempt(outcome string)
	ChallengeIssued()
	ReuseDetected()
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(string)     {}
func (nopRecorder) TwoFactorAttempt(string) {}
func (nopRecorder) RefreshAttempt(string)   {}
func (nopRecorder) ChallengeIssued()        {}
func (nopRecorder) ReuseDetected()          {}

// Outcome labels an operation result: "success" for nil, the sentinel's
// text for a known failure, "error" for anything else.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	for _, known := range []error{
		ErrInvalidCredentials, ErrAccountInactive, ErrTenantInactive,
		ErrInvalidTwoFactorCode, ErrTwoFactorCodeExpired,
		ErrInvalidRefreshToken, ErrReuseDetected, ErrContention,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "error"
}
