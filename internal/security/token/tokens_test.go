package tokens

import (
	"regexp"
	"testing"
)

func TestGenerateNumericCode_Format(t *testing.T) {
	re := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 500; i++ {
		c, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatalf("GenerateNumericCode err: %v", err)
		}
		if !re.MatchString(c) {
			t.Fatalf("bad code %q", c)
		}
	}
}

func TestGenerateNumericCode_InvalidDigits(t *testing.T) {
	if _, err := GenerateNumericCode(0); err == nil {
		t.Fatal("expected error for 0 digits")
	}
}

func TestGenerateNumericCode_LeadingDigitsVary(t *testing.T) {
	// con 2000 muestras es prácticamente imposible no ver un código con '0' inicial
	seenZero := false
	for i := 0; i < 2000 && !seenZero; i++ {
		c, _ := GenerateNumericCode(6)
		seenZero = c[0] == '0'
	}
	if !seenZero {
		t.Fatal("codes never zero-padded; distribution looks wrong")
	}
}

func TestSHA256Hex(t *testing.T) {
	got := SHA256Hex("123456")
	want := "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92"
	if got != want {
		t.Fatalf("SHA256Hex = %s, want %s", got, want)
	}
}

func TestEqualHash(t *testing.T) {
	h := SHA256Hex("123456")
	if !EqualHash(h, SHA256Hex("123456")) {
		t.Fatal("equal hashes reported different")
	}
	if EqualHash(h, SHA256Hex("123457")) {
		t.Fatal("different hashes reported equal")
	}
	if EqualHash(h, h[:10]) {
		t.Fatal("different lengths must not match")
	}
}
