// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"errors"
	"sync"
)

// errSubsystemDown is the cause of faults raised after [Teardown].
var errSubsystemDown = errors.New("socket subsystem torn down")

type subsystemState int

const (
	subsystemIdle subsystemState = iota
	subsystemReady
	subsystemFailed
	subsystemDown
)

// subsystem is the process-wide platform socket stack.
//
// The mutex serializes the first users, so that two goroutines racing
// to open the first socket observe a single startup.
var subsystem struct {
	mu    sync.Mutex
	state subsystemState
	err   error
}

// ensureSubsystem starts the platform socket stack on first use.
//
// A failed startup is remembered and reported to every later caller.
func ensureSubsystem() error {
	subsystem.mu.Lock()
	defer subsystem.mu.Unlock()
	switch subsystem.state {
	case subsystemIdle:
		if err := sysStartup(); err != nil {
			subsystem.state = subsystemFailed
			subsystem.err = newFault(SubsystemInitFault, "startup", err)
			return subsystem.err
		}
		subsystem.state = subsystemReady
		return nil
	case subsystemReady:
		return nil
	case subsystemDown:
		return newFault(SubsystemInitFault, "startup", errSubsystemDown)
	default:
		return subsystem.err
	}
}

// Teardown releases the platform socket stack.
//
// Call it once at process exit, typically deferred in main, after every
// socket has been closed. Opening a socket afterwards fails with a
// [SubsystemInitFault]. Calling Teardown before any socket was opened, or
// more than once, only prevents later opens.
func Teardown() {
	subsystem.mu.Lock()
	defer subsystem.mu.Unlock()
	if subsystem.state == subsystemReady {
		_ = sysTeardown()
	}
	subsystem.state = subsystemDown
}
