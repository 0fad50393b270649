package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// ServiceType is the DNS-SD service type of a hub.
	ServiceType = "_meshpair._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the default hub port.
	DefaultPort = 8445

	// ProtocolVersion is advertised in the ver TXT key.
	ProtocolVersion = "1"

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63

	// BrowseTimeout is the default duration of a one-shot lookup.
	BrowseTimeout = 3 * time.Second
)

// TXT record keys.
const (
	TXTKeyID       = "id"
	TXTKeyName     = "name"
	TXTKeyVersion  = "ver"
	TXTKeyFeatures = "feat"
)

// Discovery errors.
var (
	ErrNotFound            = errors.New("hub not found")
	ErrMissingRequired     = errors.New("missing required TXT key")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrNotAdvertising      = errors.New("not advertising")
	ErrInvalidConfig       = errors.New("invalid discovery configuration")
)

// HubInfo is what a hub advertises about itself.
type HubInfo struct {
	ID       string
	Name     string
	Version  string
	Features []string
	Port     uint16
}

// HubService is a hub found on the network.
type HubService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	ID       string
	Name     string
	Version  string
	Features []string
}

// Address returns a dialable host:port, preferring IPv4.
func (s *HubService) Address() string {
	host := s.Host
	for _, a := range s.Addresses {
		ip := net.ParseIP(a)
		if ip == nil {
			continue
		}
		if ip.To4() != nil {
			host = a
			break
		}
		if host == s.Host {
			host = a
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// HasFeature reports whether the hub advertises feature.
func (s *HubService) HasFeature(feature string) bool {
	for _, f := range s.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL of the published records. Zero uses the library default.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{}
}

// Validate checks the configuration.
func (c AdvertiserConfig) Validate() error {
	if c.TTL < 0 {
		return fmt.Errorf("%w: negative TTL", ErrInvalidConfig)
	}
	return nil
}

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface.
	// Empty means all interfaces.
	Interface string

	// Timeout bounds FindAll and FindByID when the context has no deadline.
	Timeout time.Duration
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{Timeout: BrowseTimeout}
}
