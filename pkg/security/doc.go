// Package security defines the security classes negotiated during inclusion,
// the device-specific key (DSK) text format and the curve25519 key pairs a
// DSK is derived from.
//
// A DSK is the first 16 bytes of a device's public key, shown as eight
// groups of five decimal digits separated by dashes:
//
//	34028-23669-20938-46346-33746-07431-56821-14553
//
// The first group doubles as the PIN a user types to authenticate an S2
// inclusion.
package security
