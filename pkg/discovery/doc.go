// Package discovery advertises and finds hubs over mDNS/DNS-SD.
//
// Hubs register one instance of the _meshpair._tcp service in the local.
// domain. The instance name is the hub name; the TXT record carries:
//
//	id    hub identifier (required)
//	name  human-readable hub name
//	ver   protocol version (required)
//	feat  comma-separated feature list, e.g. "flow,inclusion,smart_start"
//
// Browsing aggregates the addresses a hub is seen on across interfaces and
// reports each hub once.
package discovery
