package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/chenx-dust/refptr/ptr"
)

const BUFFER_SIZE = 65535

// PackedBuffer holds several framed sub-packets back to back. It is shared
// by handle; the last release puts it back into the pool.
type PackedBuffer struct {
	ptr.Counter
	Buffer     [BUFFER_SIZE]byte
	SubPackets []int
	TotalSize  int
}

type WithBufferArg[T any] struct {
	thing  T
	buffer ptr.Arg[*PackedBuffer]
}

func (wb *WithBufferArg[T]) ToOwned() WithBuffer[T] {
	return WithBuffer[T]{
		Thing:  wb.thing,
		Buffer: wb.buffer.ToOwned(),
	}
}

// WithBuffer pairs a value that aliases a buffer's bytes with a reference
// that keeps the buffer alive.
type WithBuffer[T any] struct {
	Thing  T
	Buffer ptr.Ptr[*PackedBuffer]
}

func (wb *WithBuffer[T]) Release() {
	wb.Buffer.Release()
}

func (wb *WithBuffer[T]) Move() WithBuffer[T] {
	return WithBuffer[T]{
		Thing:  wb.Thing,
		Buffer: wb.Buffer.Move(),
	}
}

func (wb *WithBuffer[T]) Share() WithBuffer[T] {
	return WithBuffer[T]{
		Thing:  wb.Thing,
		Buffer: wb.Buffer.Clone(),
	}
}

func (wb *WithBuffer[T]) MoveArg() WithBufferArg[T] {
	return WithBufferArg[T]{
		thing:  wb.Thing,
		buffer: wb.Buffer.MoveArg(),
	}
}

func (wb *WithBuffer[T]) ShareArg() WithBufferArg[T] {
	return WithBufferArg[T]{
		thing:  wb.Thing,
		buffer: wb.Buffer.ShareArg(),
	}
}

var packedBufferPool = sync.Pool{
	New: func() interface{} {
		allocsTotal.Inc()
		return &PackedBuffer{
			SubPackets: make([]int, 0),
		}
	},
}

var ActiveBuffers atomic.Int64

// NewPackedBuffer takes an empty buffer from the pool. The returned handle
// is its only reference.
func NewPackedBuffer() ptr.Ptr[*PackedBuffer] {
	buffer := packedBufferPool.Get().(*PackedBuffer)
	buffer.SubPackets = buffer.SubPackets[:0]
	buffer.TotalSize = 0
	ActiveBuffers.Add(1)
	getsTotal.Inc()
	return ptr.New(buffer)
}

// Bytes returns the filled part of the buffer.
func (p *PackedBuffer) Bytes() []byte {
	return p.Buffer[:p.TotalSize]
}

// Free returns the unfilled part of the buffer.
func (p *PackedBuffer) Free() []byte {
	return p.Buffer[p.TotalSize:]
}

// Destroy is run by the last release. It must not be called directly.
func (p *PackedBuffer) Destroy() {
	ActiveBuffers.Add(-1)
	putsTotal.Inc()
	packedBufferPool.Put(p)
}
