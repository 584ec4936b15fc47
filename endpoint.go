// SPDX-License-Identifier: GPL-3.0-or-later

package sock

// NewEndpointFunc returns a [Func] that always returns the given [IPv4Address].
//
// Combine it with [NewDialFunc] when the remote endpoint is the first
// stage of a pipeline.
func NewEndpointFunc(endpoint IPv4Address) Func[Unit, IPv4Address] {
	return ConstFunc(endpoint)
}
