// Package flow drives server-orchestrated wizards.
//
// A Session owns at most one remote flow. Every step the server returns is
// tagged with a StepType that decides what the host renders and how the
// session may advance:
//
//	form         -> Submit      -> any type
//	menu         -> SelectMenu  -> any type
//	external     -> (progress event, re-fetch) -> any type
//	progress     -> (progress event, re-fetch) -> any type
//	abort        terminal
//	create_entry terminal
//
// Network calls block the calling goroutine. While one is outstanding the
// host shows a loading indicator and further input is refused with ErrBusy.
// Results that land after Close are discarded; a flow created for a session
// that has already closed is deleted again.
//
// Usage:
//
//	session := flow.NewSession(api, host, flow.DefaultConfig())
//	if err := session.Start(ctx, "demo"); err != nil { ... }
//	...
//	err := session.Submit(ctx, flow.Values{"host": "10.0.0.1"})
//	...
//	session.Close(ctx)
package flow
