package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureSide(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 4},
		{4, 8},
		{6, 10},
		{100, 40},
		{500000, 2829},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TextureSide(tc.n), "n=%d", tc.n)
	}
}

func TestTextureSideBounds(t *testing.T) {
	for n := 1; n < 5000; n++ {
		s := TextureSide(n)
		area := 16 * n
		require.GreaterOrEqual(t, s*s, area, "n=%d", n)
		require.Less(t, (s-1)*(s-1), area, "n=%d", n)
		require.GreaterOrEqual(t, s*s*4, BytesPerInstance*n, "n=%d", n)
	}
}

func TestNewEncoderRejectsNonPositive(t *testing.T) {
	_, err := NewEncoder(0)
	assert.Error(t, err)
	_, err = NewEncoder(-5)
	assert.Error(t, err)
}

func TestEncodeSixInstances(t *testing.T) {
	e, err := NewEncoder(6, WithSeed(7))
	require.NoError(t, err)

	assert.Equal(t, 6, e.Count())
	assert.Equal(t, 10, e.Side())
	assert.Equal(t, 400, e.ByteSize())

	tex := e.Encode()
	assert.Len(t, tex.Pixels, 400)
	assert.Equal(t, uint32(10), tex.Width)
	assert.Equal(t, uint32(10), tex.Height)
	assert.Equal(t, 400, tex.ByteSize())
}

func TestEncodeLargeByteSize(t *testing.T) {
	e, err := NewEncoder(500000, WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, 2829, TextureSide(500000))
	assert.Equal(t, 2829*2829*4, e.ByteSize())
	assert.Equal(t, 32012964, e.ByteSize())
}

func TestSuccessiveEncodesDiffer(t *testing.T) {
	e, err := NewEncoder(64)
	require.NoError(t, err)

	a := e.Encode()
	b := e.Encode()
	require.Equal(t, len(a.Pixels), len(b.Pixels))
	assert.NotEqual(t, a.Pixels, b.Pixels)
}

func TestSeededEncodersMatchAcrossWorkerCounts(t *testing.T) {
	serial, err := NewEncoder(4096, WithSeed(99), WithWorkers(1), WithChunkSize(1000))
	require.NoError(t, err)
	parallel, err := NewEncoder(4096, WithSeed(99), WithWorkers(4), WithChunkSize(1000))
	require.NoError(t, err)

	assert.Equal(t, serial.Encode().Pixels, parallel.Encode().Pixels)
	assert.Equal(t, serial.Encode().Pixels, parallel.Encode().Pixels)
}

func TestRefill(t *testing.T) {
	e, err := NewEncoder(16, WithSeed(3))
	require.NoError(t, err)

	buf := make([]byte, e.ByteSize())
	require.NoError(t, e.Refill(buf))
	assert.NotEqual(t, make([]byte, len(buf)), buf)

	assert.Error(t, e.Refill(make([]byte, 3)))
}

func TestCloseStopsPoolAndKeepsEncoding(t *testing.T) {
	parallel, err := NewEncoder(4096, WithSeed(5), WithWorkers(4), WithChunkSize(1000))
	require.NoError(t, err)
	serial, err := NewEncoder(4096, WithSeed(5), WithWorkers(1), WithChunkSize(1000))
	require.NoError(t, err)

	parallel.Close()
	assert.Nil(t, parallel.(*encoder).pool)
	assert.NotPanics(t, parallel.Close)
	assert.Equal(t, serial.Encode().Pixels, parallel.Encode().Pixels)
}

func TestFillCoversByteRange(t *testing.T) {
	e, err := NewEncoder(20000, WithSeed(11))
	require.NoError(t, err)

	var seen [256]bool
	for _, b := range e.Encode().Pixels {
		seen[b] = true
	}
	for v, ok := range seen {
		assert.True(t, ok, "byte value %d never produced", v)
	}
}

func BenchmarkEncode(b *testing.B) {
	e, err := NewEncoder(500000, WithSeed(1))
	require.NoError(b, err)
	buf := make([]byte, e.ByteSize())
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Refill(buf); err != nil {
			b.Fatal(err)
		}
	}
}
