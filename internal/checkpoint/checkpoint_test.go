package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/primefang/internal/sieve"
)

func TestDeltaRoundTrip(t *testing.T) {
	t.Parallel()

	data := []uint64{2, 3, 5, 7, 11, 13, 104729}
	want := append([]uint64(nil), data...)

	DeltaEncodeUint64Slice(data)
	assert.Equal(t, []uint64{2, 1, 2, 2, 4, 2, 104716}, data)

	DeltaDecodeUint64Slice(data)
	assert.Equal(t, want, data)
}

func TestBasePrimesRoundTrip(t *testing.T) {
	t.Parallel()

	primes := sieve.Classic(100000)

	payload := EncodeBasePrimes(primes)
	require.NotNil(t, payload)

	// Delta-encoded prime gaps are tiny values; LZ4 should beat raw encoding.
	assert.Less(t, len(payload), len(primes)*8)

	restored := DecodeBasePrimes(payload, len(primes))
	assert.Equal(t, primes, restored)

	// EncodeBasePrimes must not modify its input.
	assert.Equal(t, sieve.Classic(100000), primes)
}

func TestDecodeBasePrimes_CorruptPayload(t *testing.T) {
	t.Parallel()

	assert.Nil(t, DecodeBasePrimes([]byte{0xff, 0x01, 0x02}, 10))
	assert.Nil(t, DecodeBasePrimes(nil, 10))
	assert.Nil(t, DecodeBasePrimes([]byte{1}, 0))
}

func TestManager_SaveLoad(t *testing.T) {
	t.Parallel()

	m := NewManager(t.TempDir() + "/ckpt")

	state := &State{
		OutputPath:    "/data/primes.txt",
		NextLow:       62,
		TotalReleased: 18,
		LastPrime:     61,
		BaseCeiling:   10,
	}

	require.NoError(t, m.Save(state))
	assert.True(t, m.Exists())

	loaded, err := m.Load("/data/primes.txt")
	require.NoError(t, err)

	assert.Equal(t, StateVersion, loaded.Version)
	assert.Equal(t, uint64(62), loaded.NextLow)
	assert.Equal(t, uint64(18), loaded.TotalReleased)
	assert.Equal(t, uint64(61), loaded.LastPrime)
	assert.NotEmpty(t, loaded.CreatedAt)
}

func TestManager_LoadWrongOutputPath(t *testing.T) {
	t.Parallel()

	m := NewManager(t.TempDir())

	require.NoError(t, m.Save(&State{OutputPath: "/a/primes.txt", NextLow: 2}))

	_, err := m.Load("/b/primes.txt")
	assert.ErrorIs(t, err, ErrOutputMismatch)
}

func TestManager_LoadMissing(t *testing.T) {
	t.Parallel()

	m := NewManager(t.TempDir())

	_, err := m.Load("/a/primes.txt")
	assert.Error(t, err)
	assert.False(t, m.Exists())
}

func TestManager_Clear(t *testing.T) {
	t.Parallel()

	m := NewManager(t.TempDir())

	require.NoError(t, m.Save(&State{OutputPath: "/a/primes.txt"}))
	require.NoError(t, m.Clear())
	assert.False(t, m.Exists())

	// Clearing an absent checkpoint is fine.
	require.NoError(t, m.Clear())
}
