// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import "github.com/bassosimone/errclass"

// ErrClassifier classifies errors into categorical strings for analysis.
//
// Implementations map errors to short labels (e.g., "ECONNREFUSED",
// "ETIMEDOUT") that end up in the errClass field of log events.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc adapts a function to the [ErrClassifier] interface.
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify implements [ErrClassifier].
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

// DefaultErrClassifier classifies errors using [errclass.New].
//
// A [*Fault] unwraps to the OS error, so faults are classified by errno.
var DefaultErrClassifier = ErrClassifierFunc(classifyErr)

func classifyErr(err error) string {
	if err == nil {
		return ""
	}
	return errclass.New(err)
}
