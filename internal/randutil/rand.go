// Package randutil centralises how seeded random sources are built so every
// run, and every independent worker within a sweep, gets a reproducible and
// private stream.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// NewSource returns a PCG source seeded deterministically from seed. The
// source's state can be captured with MarshalBinary for checkpoints.
func NewSource(seed int64) *rand.PCG {
	u := uint64(seed)
	return rand.NewPCG(mix(u), mix(u+goldenRatio64))
}

// New returns a *rand.Rand over NewSource(seed).
func New(seed int64) *rand.Rand {
	return rand.New(NewSource(seed))
}

// Derive returns the seed for the stream'th independent run spawned from
// base. Derived seeds are never zero, since zero asks for a time seed.
func Derive(base int64, stream int) int64 {
	s := int64(mix(uint64(base) + uint64(stream+1)*goldenRatio64))
	if s == 0 {
		return 1
	}
	return s
}

// TimeSeed returns a non-zero seed from the wall clock.
func TimeSeed() int64 {
	s := time.Now().UnixNano()
	if s == 0 {
		return 1
	}
	return s
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
