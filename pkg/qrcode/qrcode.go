// Package qrcode parses and formats the numeric QR codes printed on mesh
// devices for S2 and SmartStart inclusion.
//
// A code is a string of decimal digits:
//
//	90 VV CCCCC KKK DDDDD×8 [TT LL value...]...
//
// "90" is the lead-in, VV the version, CCCCC the first two bytes of the
// SHA-1 of everything after the checksum, KKK the requested security classes
// bitmask, followed by the 40 digit DSK and a sequence of TLV blocks.
package qrcode

import (
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/meshpair/meshpair-go/pkg/security"
)

// Prefix is the lead-in every code starts with.
const Prefix = "90"

// MinLength is the length of a code without TLV blocks.
const MinLength = 52

// Field offsets.
const (
	offVersion  = 2
	offChecksum = 4
	offKeys     = 9
	offDSK      = 12
	offTLV      = 52
)

// Version distinguishes inclusion codes.
type Version uint8

const (
	// VersionS2 is an S2 inclusion-request code.
	VersionS2 Version = 0
	// VersionSmartStart is a pre-provisioning SmartStart code.
	VersionSmartStart Version = 1
)

// String returns the version name.
func (v Version) String() string {
	switch v {
	case VersionS2:
		return "S2"
	case VersionSmartStart:
		return "SmartStart"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

// Protocol is a radio protocol a device supports.
type Protocol uint8

const (
	ProtocolMesh   Protocol = 0
	ProtocolMeshLR Protocol = 1
)

// TLV block types.
const (
	tlvProductType        = 0x00
	tlvProductID          = 0x01
	tlvMaxInclusionReqInt = 0x02
	tlvSupportedProtocols = 0x04
)

// Errors.
var (
	ErrTooShort        = errors.New("code too short")
	ErrBadPrefix       = errors.New("code must start with " + Prefix)
	ErrNotNumeric      = errors.New("code must only contain digits")
	ErrChecksum        = errors.New("checksum mismatch")
	ErrTruncatedTLV    = errors.New("truncated TLV block")
	ErrCriticalTLV     = errors.New("unsupported critical TLV block")
	ErrValueOutOfRange = errors.New("value out of range")
)

// ProvisioningInfo is the decoded content of a code.
type ProvisioningInfo struct {
	Version                     Version          `cbor:"1,keyasint"`
	DSK                         string           `cbor:"2,keyasint"`
	RequestedSecurityClasses    []security.Class `cbor:"3,keyasint"`
	GenericDeviceClass          uint8            `cbor:"4,keyasint"`
	SpecificDeviceClass         uint8            `cbor:"5,keyasint"`
	InstallerIconType           uint16           `cbor:"6,keyasint"`
	ManufacturerID              uint16           `cbor:"7,keyasint"`
	ProductType                 uint16           `cbor:"8,keyasint"`
	ProductID                   uint16           `cbor:"9,keyasint"`
	ApplicationVersion          string           `cbor:"10,keyasint"`
	MaxInclusionRequestInterval *uint8           `cbor:"11,keyasint,omitempty"`
	SupportedProtocols          []Protocol       `cbor:"12,keyasint,omitempty"`
}

// Validate performs the cheap checks that can be done without decoding:
// minimum length and lead-in.
func Validate(s string) error {
	if len(s) < MinLength {
		return fmt.Errorf("%w: %d < %d characters", ErrTooShort, len(s), MinLength)
	}
	if !strings.HasPrefix(s, Prefix) {
		return ErrBadPrefix
	}
	return nil
}

// Parse decodes and verifies a code.
func Parse(s string) (*ProvisioningInfo, error) {
	s = strings.TrimSpace(s)
	if err := Validate(s); err != nil {
		return nil, err
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, ErrNotNumeric
		}
	}

	want, _ := strconv.ParseUint(s[offChecksum:offKeys], 10, 32)
	if got := checksum(s[offKeys:]); uint64(got) != want {
		return nil, fmt.Errorf("%w: got %05d, want %05d", ErrChecksum, got, want)
	}

	version, err := digits(s, offVersion, 2, 0xff)
	if err != nil {
		return nil, err
	}
	keys, err := digits(s, offKeys, 3, 0xff)
	if err != nil {
		return nil, err
	}

	info := &ProvisioningInfo{
		Version:                  Version(version),
		RequestedSecurityClasses: security.ClassSet(keys).List(),
	}

	dsk := make([]byte, security.DSKBytes)
	for i := 0; i < security.DSKGroups; i++ {
		v, err := digits(s, offDSK+i*5, 5, 0xffff)
		if err != nil {
			return nil, err
		}
		binary.BigEndian.PutUint16(dsk[i*2:], uint16(v))
	}
	info.DSK, _ = security.FormatDSK(dsk)

	if err := parseTLVs(s[offTLV:], info); err != nil {
		return nil, err
	}
	return info, nil
}

func parseTLVs(s string, info *ProvisioningInfo) error {
	for len(s) > 0 {
		if len(s) < 4 {
			return ErrTruncatedTLV
		}
		typeCritical, _ := strconv.Atoi(s[0:2])
		length, _ := strconv.Atoi(s[2:4])
		if len(s) < 4+length {
			return ErrTruncatedTLV
		}
		value := s[4 : 4+length]
		s = s[4+length:]

		typ := typeCritical >> 1
		critical := typeCritical&1 == 1

		switch typ {
		case tlvProductType:
			if length != 10 {
				return fmt.Errorf("%w: product type length %d", ErrTruncatedTLV, length)
			}
			deviceClass, err := digits(value, 0, 5, 0xffff)
			if err != nil {
				return err
			}
			icon, err := digits(value, 5, 5, 0xffff)
			if err != nil {
				return err
			}
			info.GenericDeviceClass = uint8(deviceClass >> 8)
			info.SpecificDeviceClass = uint8(deviceClass)
			info.InstallerIconType = uint16(icon)

		case tlvProductID:
			if length != 20 {
				return fmt.Errorf("%w: product id length %d", ErrTruncatedTLV, length)
			}
			var fields [4]uint64
			for i := range fields {
				v, err := digits(value, i*5, 5, 0xffff)
				if err != nil {
					return err
				}
				fields[i] = v
			}
			info.ManufacturerID = uint16(fields[0])
			info.ProductType = uint16(fields[1])
			info.ProductID = uint16(fields[2])
			info.ApplicationVersion = fmt.Sprintf("%d.%d", fields[3]>>8, fields[3]&0xff)

		case tlvMaxInclusionReqInt:
			v, err := digits(value, 0, length, 0xff)
			if err != nil {
				return err
			}
			interval := uint8(v)
			info.MaxInclusionRequestInterval = &interval

		case tlvSupportedProtocols:
			v, err := digits(value, 0, length, 0xff)
			if err != nil {
				return err
			}
			for p := Protocol(0); p < 8; p++ {
				if v&(1<<p) != 0 {
					info.SupportedProtocols = append(info.SupportedProtocols, p)
				}
			}

		default:
			if critical {
				return fmt.Errorf("%w: type %d", ErrCriticalTLV, typ)
			}
		}
	}
	return nil
}

// Format encodes info as a code, computing the checksum.
func Format(info *ProvisioningInfo) (string, error) {
	dsk, err := security.ParseDSK(info.DSK)
	if err != nil {
		return "", err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%03d", uint8(security.NewClassSet(info.RequestedSecurityClasses...)))
	for i := 0; i < security.DSKGroups; i++ {
		fmt.Fprintf(&body, "%05d", binary.BigEndian.Uint16(dsk[i*2:]))
	}

	deviceClass := uint16(info.GenericDeviceClass)<<8 | uint16(info.SpecificDeviceClass)
	writeTLV(&body, tlvProductType, true, fmt.Sprintf("%05d%05d", deviceClass, info.InstallerIconType))

	appVersion, err := parseAppVersion(info.ApplicationVersion)
	if err != nil {
		return "", err
	}
	writeTLV(&body, tlvProductID, true, fmt.Sprintf("%05d%05d%05d%05d",
		info.ManufacturerID, info.ProductType, info.ProductID, appVersion))

	if info.MaxInclusionRequestInterval != nil {
		writeTLV(&body, tlvMaxInclusionReqInt, false, fmt.Sprintf("%03d", *info.MaxInclusionRequestInterval))
	}
	if len(info.SupportedProtocols) > 0 {
		var mask uint8
		for _, p := range info.SupportedProtocols {
			mask |= 1 << p
		}
		writeTLV(&body, tlvSupportedProtocols, false, fmt.Sprintf("%03d", mask))
	}

	rest := body.String()
	return fmt.Sprintf("%s%02d%05d%s", Prefix, info.Version, checksum(rest), rest), nil
}

func writeTLV(b *strings.Builder, typ int, critical bool, value string) {
	tc := typ << 1
	if critical {
		tc |= 1
	}
	fmt.Fprintf(b, "%02d%02d%s", tc, len(value), value)
}

func parseAppVersion(s string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("%w: application version %q", ErrValueOutOfRange, s)
	}
	ma, err := strconv.ParseUint(major, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: application version %q", ErrValueOutOfRange, s)
	}
	mi, err := strconv.ParseUint(minor, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: application version %q", ErrValueOutOfRange, s)
	}
	return uint16(ma<<8 | mi), nil
}

func checksum(s string) uint16 {
	sum := sha1.Sum([]byte(s))
	return binary.BigEndian.Uint16(sum[:2])
}

func digits(s string, off, n int, max uint64) (uint64, error) {
	if off+n > len(s) {
		return 0, ErrTruncatedTLV
	}
	v, err := strconv.ParseUint(s[off:off+n], 10, 32)
	if err != nil {
		return 0, ErrNotNumeric
	}
	if v > max {
		return 0, fmt.Errorf("%w: %d > %d", ErrValueOutOfRange, v, max)
	}
	return v, nil
}
