package domain

import "strconv"

// ResultCode is the integer status returned to scripts and by the store.
type ResultCode int

const (
	Zero                ResultCode = 0
	Ok                  ResultCode = 200
	BadRequest          ResultCode = 400
	NotFound            ResultCode = 404
	UnprocessableEntity ResultCode = 422
	NotAuthorized       ResultCode = 472
	InternalServerError ResultCode = 500
	ServiceUnavailable  ResultCode = 503
	InvalidIdentifier   ResultCode = 904
	ConnectError        ResultCode = 4000
)

// InvalidArgument and TransportError name the codes used for those error kinds.
const (
	InvalidArgument = BadRequest
	TransportError  = ConnectError
)

var resultNames = map[ResultCode]string{
	Zero:                "Zero",
	Ok:                  "Ok",
	BadRequest:          "BadRequest",
	NotFound:            "NotFound",
	UnprocessableEntity: "UnprocessableEntity",
	NotAuthorized:       "NotAuthorized",
	InternalServerError: "InternalServerError",
	ServiceUnavailable:  "ServiceUnavailable",
	InvalidIdentifier:   "InvalidIdentifier",
	ConnectError:        "ConnectError",
}

func (c ResultCode) String() string {
	if name, ok := resultNames[c]; ok {
		return name
	}
	return "ResultCode(" + strconv.Itoa(int(c)) + ")"
}

// IsOk reports whether the code is Ok.
func (c ResultCode) IsOk() bool { return c == Ok }

// Err converts a code into the matching sentinel error, nil for Ok.
func (c ResultCode) Err() error {
	switch c {
	case Ok:
		return nil
	case NotFound:
		return ErrNotFound
	case UnprocessableEntity:
		return ErrUnprocessableEntity
	case BadRequest:
		return ErrInvalidArgument
	case NotAuthorized:
		return ErrNotAuthorized
	case ConnectError:
		return ErrTransport
	default:
		return &CodeError{Code: c}
	}
}
