package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashers_DigestAndCompare(t *testing.T) {
	hashers := map[string]Hasher{
		"bcrypt": BcryptHasher{Cost: bcrypt.MinCost},
		"sha256": SHA256Hasher{},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			d, err := h.Digest("hunter2")
			require.NoError(t, err)
			assert.NotEqual(t, "hunter2", d)

			assert.True(t, h.Compare(d, "hunter2"))
			assert.False(t, h.Compare(d, "hunter3"))
			assert.False(t, h.Compare(d, ""))
		})
	}
}

func TestSHA256Hasher_KnownDigest(t *testing.T) {
	d, err := SHA256Hasher{}.Digest("abc")
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d)
}

func TestBcryptHasher_LongPasswords(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	long := strings.Repeat("a", 100)

	d, err := h.Digest(long)
	require.NoError(t, err)
	assert.True(t, h.Compare(d, long))
	assert.False(t, h.Compare(d, long[:99]+"b"))
}

func TestCompare_AcceptsEitherScheme(t *testing.T) {
	shaDigest, err := SHA256Hasher{}.Digest("pw")
	require.NoError(t, err)
	bcryptDigest, err := BcryptHasher{Cost: bcrypt.MinCost}.Digest("pw")
	require.NoError(t, err)

	assert.True(t, BcryptHasher{}.Compare(shaDigest, "pw"))
	assert.True(t, SHA256Hasher{}.Compare(bcryptDigest, "pw"))
}

func TestNewHasher(t *testing.T) {
	h, err := NewHasher("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	h, err = NewHasher("sha256")
	require.NoError(t, err)
	assert.IsType(t, SHA256Hasher{}, h)

	_, err = NewHasher("md5")
	assert.Error(t, err)
}
