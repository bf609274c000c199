package session

import "sync"

// transcriptBuffer is a fixed-size circular buffer holding the tail of the
// raw session transcript, used for the optional transcript export on exit.
type transcriptBuffer struct {
	mu    sync.RWMutex
	data  []byte
	size  int
	start int
	end   int
	full  bool
}

// newTranscriptBuffer creates a buffer with the given capacity in bytes.
func newTranscriptBuffer(size int) *transcriptBuffer {
	return &transcriptBuffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends data, overwriting the oldest bytes when full.
func (b *transcriptBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = len(p)
	for _, c := range p {
		b.data[b.end] = c
		b.end = (b.end + 1) % b.size
		if b.full {
			b.start = (b.start + 1) % b.size
		}
		if b.end == b.start {
			b.full = true
		}
	}
	return n, nil
}

// Bytes returns the buffered transcript in arrival order.
func (b *transcriptBuffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.start == b.end && !b.full {
		return nil
	}

	var result []byte
	if b.full || b.end <= b.start {
		result = make([]byte, 0, b.size)
		result = append(result, b.data[b.start:]...)
		result = append(result, b.data[:b.end]...)
	} else {
		result = make([]byte, b.end-b.start)
		copy(result, b.data[b.start:b.end])
	}
	return result
}

// Len returns the number of buffered bytes.
func (b *transcriptBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.full {
		return b.size
	}
	if b.end >= b.start {
		return b.end - b.start
	}
	return b.size - b.start + b.end
}
