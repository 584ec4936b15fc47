// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import "time"

// DefaultMaxSequenceLength is the default value of [Config.MaxSequenceLength].
const DefaultMaxSequenceLength = 1 << 24

// Config holds common configuration for sockets.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// MaxSequenceLength bounds the element count accepted when
	// reading a sequence from a [Channel]. Lengths whose byte count
	// cannot be addressed are rejected whatever this value is, and
	// stream sequences are allocated as their bytes arrive.
	//
	// Set by [NewConfig] to [DefaultMaxSequenceLength].
	MaxSequenceLength uint64

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		ErrClassifier:     DefaultErrClassifier,
		MaxSequenceLength: DefaultMaxSequenceLength,
		TimeNow:           time.Now,
	}
}
