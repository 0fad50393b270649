package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser publishes a hub over mDNS.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
	info   HubInfo
}

// NewAdvertiser creates an advertiser.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Advertiser{config: config}, nil
}

// Advertise registers the hub, replacing an earlier registration.
func (a *Advertiser) Advertise(info HubInfo) error {
	if info.ID == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instanceName(&info),
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeHubTXT(&info)),
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register hub service: %w", err)
	}

	a.server = server
	a.info = info
	return nil
}

// UpdateFeatures republishes the TXT record with a new feature list.
func (a *Advertiser) UpdateFeatures(features []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAdvertising
	}
	a.info.Features = features
	a.server.SetText(TXTRecordsToStrings(EncodeHubTXT(&a.info)))
	return nil
}

// Advertising reports whether the hub is registered.
func (a *Advertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// Stop withdraws the registration. Safe to call when not advertising.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// interfaces returns the interfaces to advertise on; nil means all.
func (a *Advertiser) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
