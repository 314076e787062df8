package canonical

// AttemptStatus is the connector-agnostic state of a payment attempt. Every
// connector maps its native status vocabulary onto a subset of these values.
type AttemptStatus string

const (
	AttemptStarted               AttemptStatus = "started"
	AttemptAuthenticationPending AttemptStatus = "authentication_pending"
	AttemptAuthorized            AttemptStatus = "authorized"
	AttemptAuthorizationFailed   AttemptStatus = "authorization_failed"
	AttemptCharged               AttemptStatus = "charged"
	AttemptFailure               AttemptStatus = "failure"
	AttemptVoided                AttemptStatus = "voided"
	AttemptVoidFailed            AttemptStatus = "void_failed"
	AttemptCaptureFailed         AttemptStatus = "capture_failed"
	AttemptPending               AttemptStatus = "pending"
)

// IsValid reports whether s is one of the known attempt statuses.
func (s AttemptStatus) IsValid() bool {
	switch s {
	case AttemptStarted, AttemptAuthenticationPending, AttemptAuthorized,
		AttemptAuthorizationFailed, AttemptCharged, AttemptFailure, AttemptVoided,
		AttemptVoidFailed, AttemptCaptureFailed, AttemptPending:
		return true
	}
	return false
}

// RefundStatus is the connector-agnostic state of a refund.
type RefundStatus string

const (
	RefundSuccess RefundStatus = "success"
	RefundFailure RefundStatus = "failure"
	RefundPending RefundStatus = "pending"
)

func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundSuccess, RefundFailure, RefundPending:
		return true
	}
	return false
}
