package wire

import "i2cdriver-go/errcode"

// Status is the one-byte response code. 0 is success; nonzero values map
// onto the errcode taxonomy. Values are wire-stable.
type Status uint8

const (
	StatusOK Status = iota
	StatusBadRequest
	StatusBadArgument
	StatusReservedAddress
	StatusTooMuchData
	StatusNoDevice
	StatusBusy
	StatusBusLocked
	StatusBusError
	StatusNotSupported
	StatusAddressInUse
	StatusNotConfigured
	StatusNoMessage
	StatusNotificationFailed
	StatusServerRestarted
	StatusInternal
)

var statusToCode = [...]errcode.Code{
	StatusOK:                 errcode.OK,
	StatusBadRequest:         errcode.BadRequest,
	StatusBadArgument:        errcode.BadArgument,
	StatusReservedAddress:    errcode.ReservedAddress,
	StatusTooMuchData:        errcode.TooMuchData,
	StatusNoDevice:           errcode.NoDevice,
	StatusBusy:               errcode.Busy,
	StatusBusLocked:          errcode.BusLocked,
	StatusBusError:           errcode.BusError,
	StatusNotSupported:       errcode.NotSupported,
	StatusAddressInUse:       errcode.AddressInUse,
	StatusNotConfigured:      errcode.NotConfigured,
	StatusNoMessage:          errcode.NoMessage,
	StatusNotificationFailed: errcode.NotificationFailed,
	StatusServerRestarted:    errcode.ServerRestarted,
	StatusInternal:           errcode.Error,
}

// StatusOf maps an error onto its wire status. Unrecognised errors become
// StatusInternal; nil is StatusOK.
func StatusOf(err error) Status {
	switch errcode.Of(err) {
	case errcode.OK:
		return StatusOK
	case errcode.BadRequest:
		return StatusBadRequest
	case errcode.BadArgument:
		return StatusBadArgument
	case errcode.ReservedAddress:
		return StatusReservedAddress
	case errcode.TooMuchData:
		return StatusTooMuchData
	case errcode.NoDevice:
		return StatusNoDevice
	case errcode.Busy:
		return StatusBusy
	case errcode.BusLocked:
		return StatusBusLocked
	case errcode.BusError:
		return StatusBusError
	case errcode.NotSupported:
		return StatusNotSupported
	case errcode.AddressInUse:
		return StatusAddressInUse
	case errcode.NotConfigured:
		return StatusNotConfigured
	case errcode.NoMessage:
		return StatusNoMessage
	case errcode.NotificationFailed:
		return StatusNotificationFailed
	case errcode.ServerRestarted:
		return StatusServerRestarted
	default:
		return StatusInternal
	}
}

// Err returns the errcode for s, or nil for StatusOK. Unknown byte values
// decode to the generic code rather than failing.
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	if int(s) < len(statusToCode) {
		return statusToCode[s]
	}
	return errcode.Error
}
