// Package log provides structured protocol capture for the meshpair hub
// protocol.
//
// It is separate from operational logging (zap): a protocol capture is a
// complete machine-readable trace of frames, decoded messages and session
// state changes, meant for later inspection with meshpair-log.
//
// # Basic Usage
//
//	// Console: protocol events as zap debug entries
//	cfg.ProtocolLogger = log.NewZapAdapter(zap.L())
//
//	// File: CBOR stream
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/meshpair/client.mplog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(zapAdapter, fileLogger)
//
// # File Format
//
// Capture files are a plain concatenation of CBOR-encoded Event values and
// use the .mplog extension.
package log
