package measure

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Handle identifies one view's cache entry. Handles are ULIDs: 26 Crockford
// base32 characters with a millisecond timestamp prefix, so they sort by
// creation time.
type Handle string

var (
	handleMu  sync.Mutex
	handleTS  uint64
	handleSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewHandle returns a fresh handle. Handles minted within the same
// millisecond carry an increasing sequence so they stay unique.
func NewHandle() Handle {
	handleMu.Lock()
	ts := uint64(time.Now().UnixMilli())
	if ts == handleTS {
		handleSeq++
	} else {
		handleTS = ts
		handleSeq = 0
	}
	seq := handleSeq
	handleMu.Unlock()

	var b [16]byte
	for i := 0; i < 6; i++ {
		b[i] = byte(ts >> (40 - 8*i))
	}
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], seq)
	return Handle(encodeULID(b))
}

// encodeULID writes 128 bits as 26 base32 digits, most significant first.
// The leading digit carries only the top 3 bits.
func encodeULID(b [16]byte) string {
	var out [26]byte
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}

// Valid reports whether h looks like a handle minted by NewHandle.
func (h Handle) Valid() bool {
	if len(h) != 26 {
		return false
	}
	for i := 0; i < len(h); i++ {
		if !isCrockford(h[i]) {
			return false
		}
	}
	return h[0] <= '7'
}

func isCrockford(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'A' && c <= 'Z':
		return c != 'I' && c != 'L' && c != 'O' && c != 'U'
	}
	return false
}
