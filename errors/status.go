package errors

import "fmt"

// Status is a result code reported by the flash storage controller. Zero is
// success; every other value is a failure. The numbering is the controller
// SDK's and is unrelated to [Code].
type Status uint32

const (
	StatusSuccess              Status = 0
	StatusSVCHandlerMissing    Status = 1
	StatusSoftdeviceNotEnabled Status = 2
	StatusInternal             Status = 3
	StatusNoMem                Status = 4
	StatusNotFound             Status = 5
	StatusNotSupported         Status = 6
	StatusInvalidParam         Status = 7
	StatusInvalidState         Status = 8
	StatusInvalidLength        Status = 9
	StatusInvalidFlags         Status = 10
	StatusInvalidData          Status = 11
	StatusDataSize             Status = 12
	StatusTimeout              Status = 13
	StatusNull                 Status = 14
	StatusForbidden            Status = 15
	StatusInvalidAddr          Status = 16
	StatusBusy                 Status = 17
	StatusConnCount            Status = 18
	StatusResources            Status = 19
)

var statusNames = map[Status]string{
	StatusSuccess:              "NRF_SUCCESS",
	StatusSVCHandlerMissing:    "NRF_ERROR_SVC_HANDLER_MISSING",
	StatusSoftdeviceNotEnabled: "NRF_ERROR_SOFTDEVICE_NOT_ENABLED",
	StatusInternal:             "NRF_ERROR_INTERNAL",
	StatusNoMem:                "NRF_ERROR_NO_MEM",
	StatusNotFound:             "NRF_ERROR_NOT_FOUND",
	StatusNotSupported:         "NRF_ERROR_NOT_SUPPORTED",
	StatusInvalidParam:         "NRF_ERROR_INVALID_PARAM",
	StatusInvalidState:         "NRF_ERROR_INVALID_STATE",
	StatusInvalidLength:        "NRF_ERROR_INVALID_LENGTH",
	StatusInvalidFlags:         "NRF_ERROR_INVALID_FLAGS",
	StatusInvalidData:          "NRF_ERROR_INVALID_DATA",
	StatusDataSize:             "NRF_ERROR_DATA_SIZE",
	StatusTimeout:              "NRF_ERROR_TIMEOUT",
	StatusNull:                 "NRF_ERROR_NULL",
	StatusForbidden:            "NRF_ERROR_FORBIDDEN",
	StatusInvalidAddr:          "NRF_ERROR_INVALID_ADDR",
	StatusBusy:                 "NRF_ERROR_BUSY",
	StatusConnCount:            "NRF_ERROR_CONN_COUNT",
	StatusResources:            "NRF_ERROR_RESOURCES",
}

// statusToCode is the explicit translation table from controller status to
// filesystem result code. Statuses not listed here map to [EIO].
var statusToCode = map[Status]Code{
	StatusSuccess:       EOK,
	StatusNoMem:         ENOMEM,
	StatusInvalidParam:  EINVAL,
	StatusInvalidLength: EINVAL,
	StatusInvalidFlags:  EINVAL,
	StatusInvalidAddr:   EINVAL,
	StatusDataSize:      EINVAL,
	StatusNull:          EINVAL,
	StatusInvalidData:   ECORRUPT,
}

func (s Status) String() string {
	name, ok := statusNames[s]
	if ok {
		return name
	}
	return fmt.Sprintf("status 0x%x", uint32(s))
}

// Translate maps a controller status onto the filesystem's result codes.
func Translate(status Status) Code {
	code, ok := statusToCode[status]
	if ok {
		return code
	}
	return EIO
}

// FromStatus converts a controller status into an error. It returns nil for
// [StatusSuccess].
func FromStatus(status Status) error {
	if status == StatusSuccess {
		return nil
	}
	code := Translate(status)
	return driverError{
		code:    code,
		status:  status,
		message: fmt.Sprintf("%s: controller reported %s", StrError(code), status),
	}
}

// NewInitError creates the error returned when binding the controller fails.
// The controller status is kept as-is and is available from Status().
func NewInitError(status Status) DriverError {
	code := Translate(status)
	return driverError{
		code:    code,
		status:  status,
		message: fmt.Sprintf("controller init failed: %s (%s)", status, StrError(code)),
	}
}
