package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawKey() []byte {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	k, err := ParseKey(base64.StdEncoding.EncodeToString(rawKey()))
	require.NoError(t, err)

	msg := "smtp pass ✓ secreto"
	ct, err := k.Seal(msg)
	require.NoError(t, err)
	assert.NotContains(t, ct, msg)
	assert.Contains(t, ct, "|")

	pt, err := k.Open(ct)
	require.NoError(t, err)
	assert.Equal(t, msg, pt)

	ct2, err := k.Seal(msg)
	require.NoError(t, err)
	assert.NotEqual(t, ct, ct2, "nonce por llamada")
}

func TestOpen_DetectsTamperAndWrongKey(t *testing.T) {
	k, err := ParseKey(hex.EncodeToString(rawKey()))
	require.NoError(t, err)
	ct, err := k.Seal("postgres://u:p@h/db")
	require.NoError(t, err)

	nonce, body, _ := strings.Cut(ct, "|")
	b, err := base64.StdEncoding.DecodeString(body)
	require.NoError(t, err)
	b[0] ^= 0xFF
	_, err = k.Open(nonce + "|" + base64.StdEncoding.EncodeToString(b))
	require.Error(t, err)

	other := rawKey()
	other[0] = 0xAA
	_, err = Key(other).Open(ct)
	require.Error(t, err)

	_, err = k.Open("no-separator")
	require.ErrorIs(t, err, ErrFormat)
}

func TestParseKey(t *testing.T) {
	_, err := ParseKey("  ")
	require.ErrorIs(t, err, ErrKeyMissing)

	_, err = ParseKey("too-short")
	require.Error(t, err)

	k, err := ParseKey(base64.RawStdEncoding.EncodeToString(rawKey()))
	require.NoError(t, err)
	assert.Equal(t, Key(rawKey()), k)

	k, err = ParseKey("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, k, 32)

	var empty Key
	_, err = empty.Seal("x")
	require.ErrorIs(t, err, ErrKeyMissing)
}
