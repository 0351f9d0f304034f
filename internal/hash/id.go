package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// EntityID derives a wire entity id from a producer-side entity name.
//
// The wire format carries entity ids in a float32 lane, which represents
// integers exactly only up to 2^24. The 64-bit hash is therefore folded into
// 24 bits by xor-ing 24-bit chunks, keeping entropy from the whole hash
// while guaranteeing a lossless float32 round-trip.
func EntityID(name string) uint32 {
	h := xxhash.Sum64String(name)

	folded := uint32(h&0xFFFFFF) ^ uint32((h>>24)&0xFFFFFF) ^ uint32(h>>48)

	return folded & 0xFFFFFF
}
