package errcode

// Code is a stable, wire-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Request decode / validation. These never reach the hardware family.
	BadRequest      Code = "bad_request"
	BadArgument     Code = "bad_argument"
	ReservedAddress Code = "reserved_address"
	TooMuchData     Code = "too_much_data"

	// Bus outcomes, mapped once at the hardware-family boundary.
	NoDevice  Code = "no_device"
	Busy      Code = "controller_busy"
	BusLocked Code = "bus_locked"
	BusError  Code = "bus_error"

	// Target-mode state.
	NotSupported       Code = "not_supported"
	AddressInUse       Code = "address_in_use"
	NotConfigured      Code = "not_configured"
	NoMessage          Code = "no_message"
	NotificationFailed Code = "notification_failed"

	// Peer lifecycle.
	ServerRestarted Code = "server_restarted"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
