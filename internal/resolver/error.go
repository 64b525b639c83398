// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolver

import (
	"context"
	"errors"
)

var (
	ErrCannotUnmarshalDNSMessage = errors.New("cannot unmarshal DNS message")
	ErrCannotMarshalDNSMessage   = errors.New("cannot marshal DNS message")
	ErrServerMisbehaving         = errors.New("server misbehaving")
	ErrInvalidDNSResponse        = errors.New("invalid DNS response")
	ErrNoAnswerFromDNSServer     = errors.New("no answer from DNS server")
	ErrLameReferral              = errors.New("lame referral")

	// ErrServerTemporarilyMisbehaving is like ErrServerMisbehaving,
	// except that it reports itself as temporary, the way a SERVFAIL
	// does.
	ErrServerTemporarilyMisbehaving = &temporaryError{"server misbehaving"}
	ErrCanceled                     = &canceledError{}
	ErrTimeout                      = &timeoutError{}
	ErrNoSuchHost                   = &notFoundError{"no such host"}
)

// canceledError lets us return a stable error string while still
// being Is context.Canceled.
type canceledError struct{}

func (canceledError) Error() string { return "operation was canceled" }

func (canceledError) Is(err error) bool { return err == context.Canceled }

// timeoutError exists to return the historical "i/o timeout" string
// for context.DeadlineExceeded. See mapErr.
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

func (e *timeoutError) Is(err error) bool {
	return err == context.DeadlineExceeded
}

// notFoundError marks resolution failures where trying another server
// will not help.
type notFoundError struct{ s string }

func (e *notFoundError) Error() string { return e.s }

// temporaryError reports true from Temporary.
type temporaryError struct{ s string }

func (e *temporaryError) Error() string   { return e.s }
func (e *temporaryError) Temporary() bool { return true }
func (e *temporaryError) Timeout() bool   { return false }

// mapErr maps the context errors to the historical error values.
func mapErr(err error) error {
	switch err {
	case context.Canceled:
		return ErrCanceled
	case context.DeadlineExceeded:
		return ErrTimeout
	default:
		return err
	}
}
