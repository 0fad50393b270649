// Package transport carries hub protocol frames over TCP.
//
// Each message is a single frame: a 4-byte big-endian length followed by
// that many bytes of CBOR. The package provides the framing codec, a
// connection type with a read loop, a retrying dialer and an accepting
// server that tracks its connections.
//
//	┌────────────────────────────────┐
//	│   CBOR envelope (pkg/wire)     │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│             TCP                │
//	└────────────────────────────────┘
package transport
