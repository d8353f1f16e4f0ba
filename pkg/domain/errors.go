package domain

import "errors"

// ErrNotFound is returned when an entity id is absent from the backing store.
var ErrNotFound = errors.New("entity not found")

// ErrUnprocessableEntity is returned when a fetched payload cannot be parsed.
var ErrUnprocessableEntity = errors.New("unprocessable entity")

// ErrTransport is returned when a backing-store call fails to complete.
var ErrTransport = errors.New("transport error")

// ErrInvalidArgument is returned when a caller supplies a malformed argument.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotAuthorized is returned when a ticket lacks rights for an operation.
var ErrNotAuthorized = errors.New("not authorized")

// ErrIDImmutable is returned when a non-empty entity id would change.
var ErrIDImmutable = errors.New("entity id is immutable")

// ErrDependencyCycle is returned when scripts depend on each other in a loop.
var ErrDependencyCycle = errors.New("dependency cycle")

// ErrUnknownDependency is returned when a script depends on a script that was never registered.
var ErrUnknownDependency = errors.New("unknown dependency")

// CodeError carries an explicit result code reported by a remote service.
type CodeError struct {
	Code ResultCode
	Msg  string
}

func (e *CodeError) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Msg
}

// CodeOf maps an error to the result code surfaced to scripts.
func CodeOf(err error) ResultCode {
	if err == nil {
		return Ok
	}
	var ce *CodeError
	switch {
	case errors.As(err, &ce):
		return ce.Code
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrUnprocessableEntity):
		return UnprocessableEntity
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrIDImmutable):
		return BadRequest
	case errors.Is(err, ErrNotAuthorized):
		return NotAuthorized
	case errors.Is(err, ErrTransport):
		return ConnectError
	default:
		return InternalServerError
	}
}
