// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"fmt"
	"unsafe"
)

// A Buffer is the encoded form of a JSON value: a contiguous sequence of words
// in which every value is a tag word followed by its payload.
//
//	Tag    | Payload
//	------ | ----------------------------------------------------------
//	Null   | none
//	True   | none
//	False  | none
//	Number | a float64, in 2 words (low half first)
//	String | the raw bytes between the quotes, NUL-terminated, padded
//	Array  | 1 word count n, then n values
//	Object | 1 word count n, then n pairs of key and value
//
// The layout of a buffer is self-describing: the extent of each value is
// determined by its own contents, so a buffer has no external index and
// contains no pointers. Positions in a buffer are word offsets.
//
// String bytes are stored in native byte order, so the raw image of a buffer
// (see [Buffer.Bytes]) is not portable between platforms of different
// endianness.
type Buffer []Word

// Bytes returns a copy of the raw byte image of b.
func (b Buffer) Bytes() []byte { return append([]byte(nil), wordBytes(b)...) }

// FromBytes returns a Buffer with the raw image in data, as produced by
// [Buffer.Bytes]. It reports an error if data is not a complete encoding of
// exactly one value.
func FromBytes(data []byte) (Buffer, error) {
	if len(data)%wordSize != 0 {
		return nil, fmt.Errorf("invalid length %d, not a multiple of %d", len(data), wordSize)
	}
	buf := make(Buffer, len(data)/wordSize)
	copy(wordBytes(buf), data)
	if err := buf.Check(); err != nil {
		return nil, err
	}
	return buf, nil
}

// Check reports whether b contains a complete encoding of exactly one value.
func (b Buffer) Check() error {
	end, err := b.Skip(0)
	if err != nil {
		return err
	} else if end != len(b) {
		return &DecodeError{Pos: end, Message: fmt.Sprintf("%d extra words after value", len(b)-end)}
	}
	return nil
}

// wordBytes returns a view of the bytes of b, sharing its storage.
func wordBytes(b Buffer) []byte {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b[0])), len(b)*wordSize)
}

// An Allocator manages the storage of buffers under construction.
//
// Grow returns a buffer with n more words than buf, whose first len(buf)
// words are the contents of buf. After a successful Grow the caller no longer
// owns buf. If Grow reports an error, buf is unchanged and still owned by the
// caller.
//
// Release is called to discard a buffer that will not be used further.
type Allocator interface {
	Grow(buf Buffer, n int) (Buffer, error)
	Release(buf Buffer)
}

// ExactAllocator is the default Allocator. It grows a buffer by exactly the
// number of words requested, so a finished buffer has no spare capacity.
type ExactAllocator struct{}

// Grow satisfies the Allocator interface.
func (ExactAllocator) Grow(buf Buffer, n int) (Buffer, error) {
	nb := make(Buffer, len(buf)+n)
	copy(nb, buf)
	return nb, nil
}

// Release satisfies the Allocator interface. Storage is reclaimed by the
// garbage collector.
func (ExactAllocator) Release(Buffer) {}

// LimitAllocator is an Allocator that fails any request that would grow a
// buffer beyond Max words. The parser reports such a failure as ErrMemory.
// Storage is obtained from Base, or from an ExactAllocator if Base is nil.
type LimitAllocator struct {
	Max  int
	Base Allocator
}

func (a LimitAllocator) base() Allocator {
	if a.Base == nil {
		return ExactAllocator{}
	}
	return a.Base
}

// Grow satisfies the Allocator interface.
func (a LimitAllocator) Grow(buf Buffer, n int) (Buffer, error) {
	if len(buf)+n > a.Max {
		return buf, fmt.Errorf("limit of %d words exceeded", a.Max)
	}
	return a.base().Grow(buf, n)
}

// Release satisfies the Allocator interface.
func (a LimitAllocator) Release(buf Buffer) { a.base().Release(buf) }

// A writer appends words to a buffer under construction.
type writer struct {
	buf   Buffer
	alloc Allocator
}

// reserve extends w.buf by n words and returns the newly-added suffix.
// The suffix is only valid until the next call to reserve.
func (w *writer) reserve(n int) (Buffer, error) {
	nb, err := w.alloc.Grow(w.buf, n)
	if err != nil {
		return nil, err
	}
	old := len(w.buf)
	w.buf = nb
	return nb[old:], nil
}

// release discards the buffer under construction.
func (w *writer) release() {
	if w.buf != nil {
		w.alloc.Release(w.buf)
		w.buf = nil
	}
}
