// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"math"
	"slices"
	"unsafe"
)

// Channel is the byte transport of the typed read/write protocol.
//
// Every socket type of this package implements it through [*Core].
type Channel interface {
	// Send performs a single native send.
	Send(p []byte) (int, error)

	// Recv performs a single native receive.
	Recv(p []byte) (int, error)

	// Kind returns the communication style, which selects the transfer policy.
	Kind() Kind

	// SequenceLimit bounds the element count of a sequence being read.
	SequenceLimit() uint64
}

// Scalar is the set of types whose representation is copied byte for byte.
//
// Values travel in host byte order and representation, so both ends of
// a channel must agree on it.
type Scalar interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		~complex64 | ~complex128
}

// sequenceLength is the length field written before every sequence.
type sequenceLength = uint64

// bytesOf returns the memory of *v as a byte slice.
func bytesOf[T Scalar](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// sliceBytes returns the backing array of values as a byte slice.
func sliceBytes[T Scalar](values []T) []byte {
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(values))), len(values)*int(unsafe.Sizeof(zero)))
}

// sendAll sends p. Stream sockets loop until every byte is sent; other
// kinds perform a single call and accept a partial transfer.
func sendAll(ch Channel, p []byte) error {
	for len(p) > 0 {
		n, err := ch.Send(p)
		if err != nil {
			return err
		}
		if ch.Kind() != KindStream {
			return nil
		}
		p = p[n:]
	}
	return nil
}

// recvAll fills p with the same policy as sendAll.
func recvAll(ch Channel, p []byte) error {
	for len(p) > 0 {
		n, err := ch.Recv(p)
		if err != nil {
			return err
		}
		if ch.Kind() != KindStream {
			return nil
		}
		p = p[n:]
	}
	return nil
}

// Write sends the representation of value.
func Write[T Scalar](ch Channel, value T) error {
	return sendAll(ch, bytesOf(&value))
}

// Read receives a value of type T.
func Read[T Scalar](ch Channel) (T, error) {
	var value T
	err := ReadInto(ch, &value)
	return value, err
}

// ReadInto receives a value of type T into out.
func ReadInto[T Scalar](ch Channel, out *T) error {
	return recvAll(ch, bytesOf(out))
}

func writeLength(ch Channel, count int) error {
	return Write(ch, sequenceLength(count))
}

// readLength receives a length field and checks it against the limit of
// ch and against the memory addressable for elements of elemSize bytes.
func readLength(ch Channel, elemSize int) (int, error) {
	count, err := Read[sequenceLength](ch)
	if err != nil {
		return 0, err
	}
	if count > ch.SequenceLimit() || count > uint64(math.MaxInt/elemSize) {
		return 0, newFault(IOFault, "recv", errMessageSize)
	}
	return int(count), nil
}

const (
	// maxDatagramPayload is the largest payload of an IPv4 datagram.
	maxDatagramPayload = 65535

	// readChunkBytes bounds the memory committed to a stream sequence
	// before the peer has sent the matching bytes.
	readChunkBytes = 1 << 16
)

// WriteSlice sends the length of values followed by its backing array
// as a single bulk byte range.
func WriteSlice[T Scalar](ch Channel, values []T) error {
	if err := writeLength(ch, len(values)); err != nil {
		return err
	}
	return sendAll(ch, sliceBytes(values))
}

// ReadSlice receives a sequence written by [WriteSlice].
//
// A length above [Channel.SequenceLimit], or one that cannot fit in a
// single datagram on a non-stream channel, is an [IOFault]. On streams
// the buffer grows as the bytes arrive.
func ReadSlice[T Scalar](ch Channel) ([]T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	count, err := readLength(ch, size)
	if err != nil {
		return nil, err
	}
	if ch.Kind() != KindStream {
		if count*size > maxDatagramPayload {
			return nil, newFault(IOFault, "recv", errMessageSize)
		}
		values := make([]T, count)
		if err := recvAll(ch, sliceBytes(values)); err != nil {
			return nil, err
		}
		return values, nil
	}
	step := max(readChunkBytes/size, 1)
	values := make([]T, 0, min(count, step))
	for len(values) < count {
		start := len(values)
		n := min(count-start, max(start, step))
		values = slices.Grow(values, n)[:start+n]
		if err := recvAll(ch, sliceBytes(values[start:])); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Codec is the explicit strategy for moving values of type T over a [Channel].
type Codec[T any] interface {
	Write(ch Channel, value T) error
	Read(ch Channel, out *T) error
}

// WriteWith sends value using codec.
func WriteWith[T any](ch Channel, codec Codec[T], value T) error {
	return codec.Write(ch, value)
}

// ReadWith receives a value using codec.
func ReadWith[T any](ch Channel, codec Codec[T]) (T, error) {
	var value T
	err := codec.Read(ch, &value)
	return value, err
}

// Bulk returns the [Codec] that copies a [Scalar] byte for byte.
func Bulk[T Scalar]() Codec[T] {
	return bulkCodec[T]{}
}

type bulkCodec[T Scalar] struct{}

func (bulkCodec[T]) Write(ch Channel, value T) error {
	return Write(ch, value)
}

func (bulkCodec[T]) Read(ch Channel, out *T) error {
	return ReadInto(ch, out)
}

// BulkSlice returns the [Codec] for sequences of a [Scalar], moved as a
// length field and one bulk byte range.
func BulkSlice[T Scalar]() Codec[[]T] {
	return bulkSliceCodec[T]{}
}

type bulkSliceCodec[T Scalar] struct{}

func (bulkSliceCodec[T]) Write(ch Channel, values []T) error {
	return WriteSlice(ch, values)
}

func (bulkSliceCodec[T]) Read(ch Channel, out *[]T) error {
	values, err := ReadSlice[T](ch)
	if err != nil {
		return err
	}
	*out = values
	return nil
}

// SliceOf returns the [Codec] for sequences whose elements need their own
// strategy: a length field followed by each element written with elem.
//
// Codecs nest, so SliceOf(SliceOf(Bulk[int32]())) moves [][][]int32.
// Reading replaces the content of out.
func SliceOf[T any](elem Codec[T]) Codec[[]T] {
	return sliceCodec[T]{elem: elem}
}

type sliceCodec[T any] struct {
	elem Codec[T]
}

func (c sliceCodec[T]) Write(ch Channel, values []T) error {
	if err := writeLength(ch, len(values)); err != nil {
		return err
	}
	for _, value := range values {
		if err := c.elem.Write(ch, value); err != nil {
			return err
		}
	}
	return nil
}

func (c sliceCodec[T]) Read(ch Channel, out *[]T) error {
	var zero T
	size := max(int(unsafe.Sizeof(zero)), 1)
	count, err := readLength(ch, size)
	if err != nil {
		return err
	}
	values := make([]T, 0, min(count, max(readChunkBytes/size, 1)))
	for range count {
		var value T
		if err := c.elem.Read(ch, &value); err != nil {
			return err
		}
		values = append(values, value)
	}
	*out = values
	return nil
}

// Text returns the [Codec] for strings, moved as a bulk byte sequence.
func Text() Codec[string] {
	return textCodec{}
}

type textCodec struct{}

func (textCodec) Write(ch Channel, value string) error {
	return WriteSlice(ch, []byte(value))
}

func (textCodec) Read(ch Channel, out *string) error {
	data, err := ReadSlice[byte](ch)
	if err != nil {
		return err
	}
	*out = string(data)
	return nil
}
