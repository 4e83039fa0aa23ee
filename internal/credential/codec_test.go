package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEncryptValidateRoundTrip(t *testing.T) {
	codec := NewCodecWithCost(bcrypt.MinCost)

	for _, password := range []string{"password123", "", "p@ss/word.", "비밀번호", strings.Repeat("x", 72)} {
		stored, err := codec.Encrypt(password)
		require.NoError(t, err)
		assert.NotContains(t, stored, "/")
		assert.False(t, strings.HasSuffix(stored, "."))

		ok, err := codec.Validate(password, stored)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should validate", password)

		ok, err = codec.Validate(password+"x", stored)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestEncryptIsSalted(t *testing.T) {
	codec := NewCodecWithCost(bcrypt.MinCost)

	a, err := codec.Encrypt("same")
	require.NoError(t, err)
	b, err := codec.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDefaultCost(t *testing.T) {
	stored, err := NewCodec().Encrypt("password123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(DecodeHash(stored)))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
}

func TestValidateMalformedHash(t *testing.T) {
	ok, err := NewCodec().Validate("password", "not-a-hash")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestHashEncodingIsInvertible(t *testing.T) {
	cases := []string{
		"$2a$10$abc/def/ghi.",
		"$2a$10$slash.dot/slashdot.",
		"$2a$10$......................................../",
		"$2a$10$nothingtoreplace",
		"",
	}
	for _, hash := range cases {
		encoded := EncodeHash(hash)
		assert.NotContains(t, encoded, "/")
		assert.False(t, strings.HasSuffix(encoded, "."))
		assert.Equal(t, hash, DecodeHash(encoded))
	}
}

func TestHashEncodingKeepsInnerDots(t *testing.T) {
	assert.Equal(t, "$2a$10$a.b-c_", EncodeHash("$2a$10$a.b/c."))
}

func FuzzHashEncodingRoundTrip(f *testing.F) {
	codec := NewCodecWithCost(bcrypt.MinCost)
	f.Add("password")
	f.Add("")
	f.Add("////....")

	f.Fuzz(func(t *testing.T, password string) {
		if len(password) > 72 {
			password = password[:72]
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Skip()
		}
		if DecodeHash(EncodeHash(string(hash))) != string(hash) {
			t.Fatalf("encoding not invertible for %q", hash)
		}
		ok, err := codec.Validate(password, EncodeHash(string(hash)))
		if err != nil || !ok {
			t.Fatalf("validate failed: ok=%v err=%v", ok, err)
		}
	})
}
