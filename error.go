package netdb

import "errors"

// AddrInfoError is a GetAddrInfo failure with a stable numeric code,
// matching the EAI_* values the embedded socket layer exposes.
type AddrInfoError struct {
	code int
	msg  string
}

func (e *AddrInfoError) Error() string { return e.msg }

// Code returns the stable numeric value of the error.
func (e *AddrInfoError) Code() int { return e.code }

var (
	// ErrNoName is returned when neither a node name nor a service
	// was given, or a literal could not be parsed.
	ErrNoName = &AddrInfoError{200, "node name or service name not known"}
	// ErrService is returned for a service string that is not a
	// decimal port number in 0..65535.
	ErrService = &AddrInfoError{201, "service not supported"}
	// ErrFail is returned when resolution failed, including
	// resolver timeouts and names that are too long.
	ErrFail = &AddrInfoError{202, "non-recoverable failure in name resolution"}
	// ErrMemory is returned when the result entry pool is
	// exhausted.
	ErrMemory = &AddrInfoError{203, "memory allocation failure"}
	// ErrFamily is returned for an address family outside
	// {AFUnspec, AFInet, AFInet6}.
	ErrFamily = &AddrInfoError{204, "address family not supported"}
)

// Values reported through the legacy h_errno side channel.
const (
	HostNotFound = 210
	NoData       = 211
	NoRecovery   = 212
	TryAgain     = 213
)

var (
	// ErrHostNotFound is the error form of HostNotFound, returned
	// by the reentrant lookup which must not touch the shared
	// error variable.
	ErrHostNotFound = errors.New("host not found")
	// ErrRange reports a caller-supplied scratch buffer too small
	// to hold the result.
	ErrRange = errors.New("buffer too small for result")
	// ErrArgument reports a missing output argument.
	ErrArgument = errors.New("missing required argument")
)
