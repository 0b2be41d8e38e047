package checkpoint

import (
	"bytes"
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// uint64ByteSize is the number of bytes in a uint64.
const uint64ByteSize = 8

// CompressUint64Slice compresses a slice of uint64-s with LZ4.
// Returns nil when compression fails or does not shrink the input;
// callers treat nil as "store nothing and recompute on resume".
func CompressUint64Slice(data []uint64) []byte {
	buf := new(bytes.Buffer)

	writeErr := binary.Write(buf, binary.LittleEndian, data)
	if writeErr != nil {
		return nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil || written == 0 {
		return nil
	}

	return compressed[:written]
}

// DecompressUint64Slice decompresses a slice of uint64-s previously compressed
// with LZ4. `result` must be preallocated to the original element count.
// Returns false when the payload is corrupt.
func DecompressUint64Slice(data []byte, result []uint64) bool {
	decompressed := make([]byte, len(result)*uint64ByteSize)

	_, err := lz4.UncompressBlock(data, decompressed)
	if err != nil {
		return false
	}

	readErr := binary.Read(bytes.NewReader(decompressed), binary.LittleEndian, result)

	return readErr == nil
}

// DeltaEncodeUint64Slice replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged. This transforms
// sorted prime sequences into small, repetitive gaps that compress better
// with LZ4.
func DeltaEncodeUint64Slice(data []uint64) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecodeUint64Slice performs a prefix-sum to restore original values from
// deltas produced by DeltaEncodeUint64Slice. The operation is performed in place.
func DeltaDecodeUint64Slice(data []uint64) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}

// EncodeBasePrimes packs an ascending prime slice into a compact checkpoint
// payload: delta encoding followed by LZ4. The input slice is not modified.
// Returns nil when the payload would not be worth storing.
func EncodeBasePrimes(primes []uint64) []byte {
	if len(primes) == 0 {
		return nil
	}

	deltas := make([]uint64, len(primes))
	copy(deltas, primes)
	DeltaEncodeUint64Slice(deltas)

	return CompressUint64Slice(deltas)
}

// DecodeBasePrimes unpacks a payload produced by EncodeBasePrimes.
// Returns nil when the payload is corrupt; resume then recomputes the cache.
func DecodeBasePrimes(data []byte, count int) []uint64 {
	if len(data) == 0 || count <= 0 {
		return nil
	}

	primes := make([]uint64, count)
	if !DecompressUint64Slice(data, primes) {
		return nil
	}

	DeltaDecodeUint64Slice(primes)

	return primes
}
