// Package wire defines the CBOR wire format of the meshpair hub protocol.
//
// Every message is a CBOR map with integer keys, sent as one length-prefixed
// frame (see package transport). Key 1 always carries the message kind.
//
// # Message Kinds
//
//   - Request: client to hub, a named command with a payload
//   - Response: hub to client, a status code and an optional payload
//   - Event: hub to client, a push event on a subscription
//
// Payloads are carried as raw CBOR so that the envelope can be decoded and
// routed before the command-specific payload type is known.
package wire
