// Package entropy supplies seeds for matches and generated levels that do not
// pin one. Seeds come from crypto/rand, falling back to the clock.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"time"
)

// Seed returns a positive random seed. It never returns zero, which callers
// use to mean "pick one for me".
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		slog.Warn("crypto/rand unavailable, seeding from clock", "error", err)
		return clockSeed()
	}
	s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if s == 0 {
		return clockSeed()
	}
	return s
}

func clockSeed() int64 {
	s := time.Now().UnixNano() & (1<<63 - 1)
	if s == 0 {
		s = 1
	}
	return s
}
