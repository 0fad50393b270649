package security

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/curve25519"
)

// DSK layout.
const (
	DSKBytes  = 16
	DSKGroups = DSKBytes / 2
	PINLength = 5
)

// DSK errors.
var (
	ErrInvalidDSK = errors.New("invalid DSK")
	ErrInvalidPIN = errors.New("invalid PIN")
)

// FormatDSK renders the first 16 bytes of b as a dashed DSK string.
func FormatDSK(b []byte) (string, error) {
	if len(b) < DSKBytes {
		return "", fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidDSK, DSKBytes, len(b))
	}
	groups := make([]string, DSKGroups)
	for i := range groups {
		groups[i] = fmt.Sprintf("%05d", binary.BigEndian.Uint16(b[i*2:]))
	}
	return strings.Join(groups, "-"), nil
}

// ParseDSK parses a dashed DSK string back into its 16 bytes.
func ParseDSK(s string) ([]byte, error) {
	groups := strings.Split(strings.TrimSpace(s), "-")
	if len(groups) != DSKGroups {
		return nil, fmt.Errorf("%w: expected %d groups, got %d", ErrInvalidDSK, DSKGroups, len(groups))
	}
	out := make([]byte, DSKBytes)
	for i, g := range groups {
		if len(g) != 5 {
			return nil, fmt.Errorf("%w: group %d %q", ErrInvalidDSK, i+1, g)
		}
		v, err := strconv.ParseUint(g, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: group %d %q", ErrInvalidDSK, i+1, g)
		}
		binary.BigEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out, nil
}

// PIN returns the first group of a DSK.
func PIN(dsk string) (string, error) {
	if _, err := ParseDSK(dsk); err != nil {
		return "", err
	}
	return dsk[:PINLength], nil
}

// ValidatePIN checks that pin is five decimal digits.
func ValidatePIN(pin string) error {
	if len(pin) != PINLength {
		return fmt.Errorf("%w: must be %d digits", ErrInvalidPIN, PINLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: must be %d digits", ErrInvalidPIN, PINLength)
		}
	}
	return nil
}

// KeyPair is a curve25519 key pair as used by S2 key exchange.
type KeyPair struct {
	Private [curve25519.ScalarSize]byte
	Public  [curve25519.PointSize]byte
}

// GenerateKeyPair creates a random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	var kp KeyPair
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return nil, fmt.Errorf("failed to read random: %w", err)
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	copy(kp.Public[:], pub)
	return &kp, nil
}

// DSK returns the DSK derived from the public key.
func (kp *KeyPair) DSK() string {
	dsk, _ := FormatDSK(kp.Public[:DSKBytes])
	return dsk
}

// SharedSecret computes the X25519 shared secret with a peer public key.
func (kp *KeyPair) SharedSecret(peer []byte) ([]byte, error) {
	return curve25519.X25519(kp.Private[:], peer)
}
