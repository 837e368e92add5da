package binding

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried on binding error envelopes.
const (
	ErrorCodeSevered              = "TETHER_SEVERED"
	ErrorCodeInvalidRedeem        = "TETHER_INVALID_REDEEM"
	ErrorCodeBadUsage             = "TETHER_BAD_USAGE"
	ErrorCodeUnreconciledTeardown = "TETHER_UNRECONCILED_TEARDOWN"
)

func newSeveredError(message string) error {
	return goerrors.New(message, goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(ErrorCodeSevered)
}

func newInvalidRedeemError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeInvalidRedeem)
}

func newBadUsageError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeBadUsage)
}

// unreconciledTeardownError builds the panic value raised when a policy that
// cannot safely drain is sealed with references outstanding. It is a
// programmer-error contract: correct programs never construct it.
func unreconciledTeardownError(policy string, outstanding int) error {
	return goerrors.New(
		"binding: "+policy+" binding sealed with outstanding references",
		goerrors.CategoryInternal,
	).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorCodeUnreconciledTeardown).
		WithSeverity(goerrors.SeverityCritical)
}

// IsSevered reports whether err signals an operation against a sealed
// binding.
func IsSevered(err error) bool {
	return hasTextCode(err, ErrorCodeSevered)
}

// IsInvalidRedeem reports whether err signals a redeem with a mismatched or
// already-reconciled pairing.
func IsInvalidRedeem(err error) bool {
	return hasTextCode(err, ErrorCodeInvalidRedeem)
}

// IsBadUsage reports whether err signals a protocol usage error, such as
// binding before fixing or cloning a manual handle.
func IsBadUsage(err error) bool {
	return hasTextCode(err, ErrorCodeBadUsage)
}

// IsUnreconciledTeardown inspects a recovered panic value. It is intended for
// tests and process-boundary handlers; the library itself never swallows the
// panic, because doing so would hide a use-after-free-equivalent condition.
func IsUnreconciledTeardown(recovered any) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	return hasTextCode(err, ErrorCodeUnreconciledTeardown)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
