package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTokenFromHeader(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer   abc", "abc", true},
		{"abc.def.ghi", "abc.def.ghi", true},
		{"", "", false},
		{"   ", "", false},
		{"Bearer ", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractTokenFromHeader(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestExtractTokenFromCookies(t *testing.T) {
	header := `theme=dark; access_token=abc%2Edef%2Eghi; refresh_token="r1"; access_token=second`

	got, ok := ExtractTokenFromCookies(header, "access_token")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", got)

	got, ok = ExtractTokenFromCookies(header, "refresh_token")
	assert.True(t, ok)
	assert.Equal(t, "r1", got)

	_, ok = ExtractTokenFromCookies(header, "missing")
	assert.False(t, ok)

	_, ok = ExtractTokenFromCookies("", "access_token")
	assert.False(t, ok)
}

func TestParseCookieHeader_BadEscapeKeepsRaw(t *testing.T) {
	m := ParseCookieHeader("a=%zz; b=ok; junk")
	assert.Equal(t, "%zz", m["a"])
	assert.Equal(t, "ok", m["b"])
	assert.Len(t, m, 2)
}
