// Package inclusion implements the device pairing dialog.
//
// A Controller runs one inclusion attempt at a time against a Service. Each
// attempt owns one push-event subscription (opened by AddNode) and one
// watchdog timer. Events move the attempt through its statuses:
//
//	inclusion started          -> Started / StartedSpecific
//	validate dsk and enter pin -> ValidateDSKEnterPIN
//	grant security classes     -> GrantSecurityClasses (or auto-grant)
//	node added                 -> Interviewing
//	interview completed        -> Finished
//	inclusion failed           -> Failed
//	(timer)                    -> TimedOut
//
// The user can abandon an attempt at any point to pick a strategy or scan a
// QR code, which starts a fresh attempt. Every attempt bumps a generation
// counter; events, responses and timer fires from an older generation are
// dropped.
package inclusion
