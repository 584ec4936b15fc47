// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// FaultKind identifies the class of native call that failed.
//
// A FaultKind is itself an error, so callers can test a returned
// error with [errors.Is]:
//
//	if errors.Is(err, sock.ConnectFault) {
//		// try another address
//	}
type FaultKind int

const (
	// OpenFault indicates that creating a native socket failed.
	OpenFault FaultKind = iota + 1

	// BindFault indicates that bind failed.
	BindFault

	// ConnectFault indicates that connect failed.
	ConnectFault

	// ListenFault indicates that listen failed.
	ListenFault

	// AcceptFault indicates that accept failed.
	AcceptFault

	// IOFault indicates that send or recv failed.
	IOFault

	// PollFault indicates that poll failed.
	PollFault

	// SelectFault indicates that select failed.
	SelectFault

	// OptionFault indicates that a socket option, mode or name query failed.
	OptionFault

	// SubsystemInitFault indicates that the platform socket stack is unavailable.
	SubsystemInitFault
)

var faultKindNames = map[FaultKind]string{
	OpenFault:          "OpenFault",
	BindFault:          "BindFault",
	ConnectFault:       "ConnectFault",
	ListenFault:        "ListenFault",
	AcceptFault:        "AcceptFault",
	IOFault:            "IOFault",
	PollFault:          "PollFault",
	SelectFault:        "SelectFault",
	OptionFault:        "OptionFault",
	SubsystemInitFault: "SubsystemInitFault",
}

// String returns the name of the fault kind.
func (k FaultKind) String() string {
	if name, ok := faultKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

// Error implements error.
func (k FaultKind) Error() string {
	return "sock: " + k.String()
}

// Fault is the error returned when a native socket call fails.
//
// A Fault is returned at the exact point of failure and never retried
// internally. It does not invalidate the socket: closing stays an
// explicit, separate action.
type Fault struct {
	// Kind is the class of the failing call.
	Kind FaultKind

	// Call is the native call that failed (e.g., "connect").
	Call string

	// Site is the operation that observed the failure (e.g., "(*Connectable[...]).Connect").
	Site string

	// Err wraps the OS error detail and the stack of the failure.
	Err error
}

var _ error = &Fault{}

// newFault creates a [*Fault] for the given kind, native call and OS error.
//
// The site is the caller of newFault.
func newFault(kind FaultKind, call string, err error) *Fault {
	wrapped := errors.WithStack(os.NewSyscallError(call, err))
	return &Fault{
		Kind: kind,
		Call: call,
		Site: faultSite(wrapped),
		Err:  wrapped,
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// faultSite returns the function name of the frame above newFault.
func faultSite(err error) string {
	st, ok := err.(stackTracer)
	if !ok {
		return ""
	}
	frames := st.StackTrace()
	if len(frames) < 2 {
		return ""
	}
	return fmt.Sprintf("%n", frames[1])
}

// Error implements error.
func (f *Fault) Error() string {
	return fmt.Sprintf("sock: %s in %s: %s", f.Kind.String(), f.Site, f.Err.Error())
}

// Unwrap returns the wrapped OS error.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Is reports whether target is the kind of this fault.
func (f *Fault) Is(target error) bool {
	kind, ok := target.(FaultKind)
	return ok && kind == f.Kind
}

// Format implements [fmt.Formatter]; %+v includes the stack of the failure.
func (f *Fault) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		fmt.Fprintf(s, "sock: %s in %s: %+v", f.Kind.String(), f.Site, f.Err)
	case verb == 'v' || verb == 's':
		fmt.Fprint(s, f.Error())
	case verb == 'q':
		fmt.Fprintf(s, "%q", f.Error())
	}
}
