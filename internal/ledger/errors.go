package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Rejections. Every error returned by Create, Confirm or Cancel that is not an
// infrastructure failure matches one of these with errors.Is.
var (
	ErrDeviceNotFound          = errors.New("device not found")
	ErrDuplicateLineItem       = errors.New("duplicate line item")
	ErrInvalidDeviceState      = errors.New("invalid device state")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrReturnExceedsHeld       = errors.New("return exceeds held quantity")
	ErrInvalidTransactionState = errors.New("invalid transaction state")
	ErrInvalidSiteTransfer     = errors.New("invalid site transfer")
	ErrInvalidFloorTransfer    = errors.New("invalid floor transfer")
	ErrInvalidUseFloor         = errors.New("invalid floor use")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrLocationNotFound        = errors.New("location not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
)

// LineError reports every line of a request that failed the same check.
type LineError struct {
	Kind        error
	Identifiers []string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Identifiers, ", "))
}

func (e *LineError) Unwrap() error { return e.Kind }

// StockError reports a bulk line asking for more than its source pool holds,
// or, for returns from repair, more than is still out for repair.
type StockError struct {
	Kind      error
	DeviceID  int64
	Device    string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%v: %s has %d, requested %d", e.Kind, e.Device, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return e.Kind }

// accumulator collects offending line identifiers during a validation pass so
// they can be reported together.
type accumulator struct {
	kind        error
	identifiers []string
}

func (a *accumulator) add(identifier string) {
	a.identifiers = append(a.identifiers, identifier)
}

func (a *accumulator) err() error {
	if len(a.identifiers) == 0 {
		return nil
	}
	return &LineError{Kind: a.kind, Identifiers: a.identifiers}
}

// Reason returns a short label for the rejection behind err, used for
// metrics. Unknown errors are "internal".
func Reason(err error) string {
	for _, r := range []struct {
		err   error
		label string
	}{
		{ErrDeviceNotFound, "device_not_found"},
		{ErrDuplicateLineItem, "duplicate_line_item"},
		{ErrInvalidDeviceState, "invalid_device_state"},
		{ErrInsufficientStock, "insufficient_stock"},
		{ErrReturnExceedsHeld, "return_exceeds_held"},
		{ErrInvalidTransactionState, "invalid_transaction_state"},
		{ErrInvalidSiteTransfer, "invalid_site_transfer"},
		{ErrInvalidFloorTransfer, "invalid_floor_transfer"},
		{ErrInvalidUseFloor, "invalid_use_floor"},
		{ErrInvalidRequest, "invalid_request"},
		{ErrLocationNotFound, "location_not_found"},
		{ErrUserNotFound, "user_not_found"},
		{ErrTransactionNotFound, "transaction_not_found"},
	} {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "internal"
}
