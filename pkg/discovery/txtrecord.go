package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeHubTXT creates the TXT records of a hub.
func EncodeHubTXT(info *HubInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyID:      info.ID,
		TXTKeyVersion: info.Version,
	}
	if txt[TXTKeyVersion] == "" {
		txt[TXTKeyVersion] = ProtocolVersion
	}
	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}
	if len(info.Features) > 0 {
		txt[TXTKeyFeatures] = strings.Join(info.Features, ",")
	}
	return txt
}

// DecodeHubTXT parses the TXT records of a hub.
func DecodeHubTXT(txt TXTRecordMap) (*HubInfo, error) {
	info := &HubInfo{}

	var ok bool
	if info.ID, ok = txt[TXTKeyID]; !ok || info.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}
	if info.Version, ok = txt[TXTKeyVersion]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	info.Name = txt[TXTKeyName]

	if feat := txt[TXTKeyFeatures]; feat != "" {
		for _, f := range strings.Split(feat, ",") {
			if f = strings.TrimSpace(f); f != "" {
				info.Features = append(info.Features, f)
			}
		}
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if !found && k == "" {
			continue
		}
		// A key without "=" is a boolean flag.
		txt[k] = v
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// instanceName derives the instance name of a hub, truncated to the DNS
// label limit.
func instanceName(info *HubInfo) string {
	name := info.Name
	if name == "" {
		name = "meshpair-" + info.ID
	}
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}
