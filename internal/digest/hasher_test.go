package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Digest {
	t.Helper()
	d, err := ParseHex(s)
	require.NoError(t, err)
	return d
}

func TestSumWithSmallNonce(t *testing.T) {
	h := NewHasher([]byte("helloworld"))
	want := mustParse(t, "c81ee5e927e9d7987e1ad7c92eb63ecb78d9a7a5949de5462f5f1d79d6b5d0d1")
	assert.Equal(t, want, h.Sum(0))
}

func TestSumWithLargeNonce(t *testing.T) {
	h := NewHasher([]byte("abc"))
	want := mustParse(t, "bd2154c71c7a42c66269709fc3508b587bbd61cce9c977fe0c9d313e7a47fb55")
	assert.Equal(t, want, h.Sum(4294967295))
}

func TestSumIsDeterministic(t *testing.T) {
	h := NewHasher([]byte("anarbitrarystring"))
	first := h.Sum(42)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, h.Sum(42))
	}
	assert.NotEqual(t, first, h.Sum(43))
}

func TestCloneIsIndependent(t *testing.T) {
	base := []byte("mutable")
	h := NewHasher(base)
	c := h.Clone()

	// The hasher copies its base, so caller mutation cannot change results.
	before := h.Sum(7)
	base[0] = 'X'
	assert.Equal(t, before, h.Sum(7))
	assert.Equal(t, before, c.Sum(7))
}
