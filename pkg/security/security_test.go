package security

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseClass(t *testing.T) {
	tests := []struct {
		in      string
		want    Class
		wantErr bool
	}{
		{"S2_Unauthenticated", S2Unauthenticated, false},
		{"s2a", S2Authenticated, false},
		{"S2_AccessControl", S2AccessControl, false},
		{" S0 ", S0Legacy, false},
		{"S3", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClass(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClass(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownClass) {
			t.Errorf("ParseClass(%q) error = %v, want ErrUnknownClass", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseClass(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClassSet(t *testing.T) {
	s := NewClassSet(S0Legacy, S2Authenticated)
	if !s.Has(S0Legacy) || !s.Has(S2Authenticated) {
		t.Fatalf("NewClassSet() = %v, missing classes", s)
	}
	if s.Has(S2AccessControl) {
		t.Errorf("Has(S2AccessControl) = true, want false")
	}

	s = s.Toggle(S2AccessControl, true).Toggle(S0Legacy, false)
	if got := s.String(); got != "S2_Authenticated,S2_AccessControl" {
		t.Errorf("String() = %q, want %q", got, "S2_Authenticated,S2_AccessControl")
	}
	if h, ok := s.Highest(); !ok || h != S2AccessControl {
		t.Errorf("Highest() = %v, %v, want S2_AccessControl", h, ok)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if NewClassSet(Class(5)) != 0 {
		t.Errorf("NewClassSet(5) should ignore unknown classes")
	}
	if _, ok := ClassSet(0).Highest(); ok {
		t.Errorf("Highest() on empty set reported ok")
	}
}

func TestGrantSet(t *testing.T) {
	g := Grant{SecurityClasses: []Class{S2Unauthenticated, S2Authenticated}}
	if got := g.Set(); got != NewClassSet(S2Authenticated, S2Unauthenticated) {
		t.Errorf("Set() = %v", got)
	}
}

func TestDSKRoundTrip(t *testing.T) {
	raw := []byte{0x84, 0xf0, 0x5c, 0x75, 0x51, 0xca, 0xb5, 0x0a, 0x83, 0xd2, 0x1d, 0x07, 0xdd, 0xf5, 0x38, 0xd9}
	dsk, err := FormatDSK(raw)
	if err != nil {
		t.Fatalf("FormatDSK() error = %v", err)
	}
	if want := "34032-23669-20938-46346-33746-07431-56821-14553"; dsk != want {
		t.Errorf("FormatDSK() = %q, want %q", dsk, want)
	}

	back, err := ParseDSK(dsk)
	if err != nil {
		t.Fatalf("ParseDSK() error = %v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Errorf("ParseDSK() = %x, want %x", back, raw)
	}

	pin, err := PIN(dsk)
	if err != nil || pin != "34032" {
		t.Errorf("PIN() = %q, %v, want 34032", pin, err)
	}
}

func TestParseDSKInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"11111-22222",
		"11111-22222-33333-44444-55555-66666-77777-8888",
		"11111-22222-33333-44444-55555-66666-77777-99999",
		"1111a-22222-33333-44444-55555-66666-77777-88888",
	} {
		if _, err := ParseDSK(in); !errors.Is(err, ErrInvalidDSK) {
			t.Errorf("ParseDSK(%q) error = %v, want ErrInvalidDSK", in, err)
		}
	}
	if _, err := FormatDSK(make([]byte, 4)); !errors.Is(err, ErrInvalidDSK) {
		t.Errorf("FormatDSK(short) error = %v, want ErrInvalidDSK", err)
	}
}

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		pin     string
		wantErr bool
	}{
		{"12345", false},
		{"00000", false},
		{"1234", true},
		{"123456", true},
		{"12a45", true},
	}
	for _, tt := range tests {
		if err := ValidatePIN(tt.pin); (err != nil) != tt.wantErr {
			t.Errorf("ValidatePIN(%q) error = %v, wantErr %v", tt.pin, err, tt.wantErr)
		}
	}
}

func TestKeyPairDSK(t *testing.T) {
	a, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	b, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	raw, err := ParseDSK(a.DSK())
	if err != nil {
		t.Fatalf("ParseDSK(DSK()) error = %v", err)
	}
	if !bytes.Equal(raw, a.Public[:DSKBytes]) {
		t.Errorf("DSK() does not encode the public key prefix")
	}

	s1, err := a.SharedSecret(b.Public[:])
	if err != nil {
		t.Fatalf("SharedSecret() error = %v", err)
	}
	s2, err := b.SharedSecret(a.Public[:])
	if err != nil {
		t.Fatalf("SharedSecret() error = %v", err)
	}
	if !bytes.Equal(s1, s2) {
		t.Errorf("shared secrets differ")
	}
}
