// SPDX-License-Identifier: GPL-3.0-or-later

// Package sock provides exclusively-owned native sockets decorated by
// composable capabilities, plus a typed read/write protocol over them.
//
// # Core Abstraction
//
// A [*Core] owns exactly one native [Handle] of a given address family,
// [Kind] and [Protocol]. Ownership moves with [*Core.Move] and
// [*Core.Swap]; [*Core.Close] is idempotent and never fails.
//
// Behavior is added by capability layers that only add methods:
//
//   - [IPOptions]: placeholder for IP-level options
//   - [Bindable]: Bind to a local address
//   - [Connectable]: Connect to a remote address
//   - [Listening]: Listen and Accept, wrapping accepted sockets into a concrete type
//   - [Pollable]: poll-style readiness with OnRead/OnWrite/OnDisconnect/OnError slots
//   - [Selectable]: select-style readiness with per-call reactions
//
// A concrete socket type is a struct embedding a [*Core] followed by an
// ordered subset of layers. This package ships [TCPStream], [UDPSocket],
// [PollableTCPStream] and [UDPPeer].
//
// # Typed Channel
//
// Every socket is a [Channel]. [Write], [Read] and [ReadInto] move a
// [Scalar] as its raw host representation. [WriteSlice] and [ReadSlice]
// move a length field followed by one bulk byte range. Types that need
// per-element logic use an explicit [Codec]: [Bulk], [BulkSlice], [Text]
// and the recursive [SliceOf], driven by [WriteWith] and [ReadWith].
//
// Stream sockets loop until every byte is moved; datagram and raw sockets
// perform a single native call per value.
//
// # Errors
//
// Failing native calls return a [*Fault] carrying a [FaultKind], the native
// call name, the operation that observed the failure and the platform error.
// Use [errors.Is] with a [FaultKind] (e.g., [ConnectFault]) or with the
// platform errno. A fault never closes the socket.
//
// # Pipelines
//
// The [Func] abstraction composes socket setup steps with [Compose2],
// [Compose3] and [Compose4]: [NewOpenFunc], [NewBindFunc], [NewConnectFunc],
// [NewListenFunc], [NewDialFunc] and [NewEndpointFunc]. A stage that fails
// closes the socket it received. [NewNetConnFunc] moves a socket into a
// [net.Conn] and [NewAdoptFunc] takes over a [net.Conn] as a [*TCPStream].
//
// # Observability
//
// All operations support structured logging via [SLogger] (compatible with
// [log/slog]). By default, logging is disabled: pass a [*slog.Logger] to
// enable it. Errors are classified via [Config.ErrClassifier].
//
// Lifecycle events (open, bind, connect, listen, accept, close, adopt,
// netConn) are *Start/*Done pairs at [slog.LevelInfo]. Send, receive,
// poll, select and blocking mode changes are emitted at [slog.LevelDebug].
// All events carry handle, protocol and t; *Done events add t0, err and
// errClass. Use [NewSpanID] with [*slog.Logger.With] to correlate the
// events of a single socket.
//
// # Subsystem
//
// The first socket opened in the process starts the platform socket stack
// (Winsock on Windows). Call [Teardown] once at process exit.
//
// # Design Boundaries
//
// Each socket checks its own readiness only: there is no reactor
// multiplexing many sockets. IPv6 addresses are declared but not
// implemented. Name resolution and protocol stacks are out of scope.
package sock
