package patch

import "strings"

// NameHash returns the 32-bit case-insensitive name hash the server uses to
// key directory children: MurmurHash2 (seed 0) over the lowercased name
// encoded as UTF-16LE. Murmur2 is not murmur3; the two are not
// wire-compatible, so the hash is implemented here.
func NameHash(name string) uint32 {
	data, err := EncodeUTF16(strings.ToLower(name))
	if err != nil {
		// Name came off the wire as valid UTF-16; re-encoding cannot fail.
		return 0
	}
	return murmur2(data, 0)
}

// murmur2 is the classic 32-bit MurmurHash2 by Austin Appleby.
func murmur2(data []byte, seed uint32) uint32 {
	const (
		m = 0x5bd1e995
		r = 24
	)

	h := seed ^ uint32(len(data))

	for len(data) >= 4 {
		k := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		k *= m
		k ^= k >> r
		k *= m

		h *= m
		h ^= k

		data = data[4:]
	}

	switch len(data) {
	case 3:
		h ^= uint32(data[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[0])
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15

	return h
}
