package security

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Class is a security class a node can be granted.
type Class uint8

const (
	// S2Unauthenticated is S2 without DSK verification.
	S2Unauthenticated Class = 0
	// S2Authenticated is S2 with DSK verification.
	S2Authenticated Class = 1
	// S2AccessControl is S2 for locks and access control devices.
	S2AccessControl Class = 2
	// S0Legacy is the legacy S0 scheme.
	S0Legacy Class = 7
)

// ErrUnknownClass is returned when parsing an unknown class name.
var ErrUnknownClass = errors.New("unknown security class")

// AllClasses lists the known classes from highest to lowest tier.
var AllClasses = []Class{S2AccessControl, S2Authenticated, S2Unauthenticated, S0Legacy}

var classNames = map[Class]string{
	S2Unauthenticated: "S2_Unauthenticated",
	S2Authenticated:   "S2_Authenticated",
	S2AccessControl:   "S2_AccessControl",
	S0Legacy:          "S0_Legacy",
}

// String returns the class name.
func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// IsValid reports whether c is a known class.
func (c Class) IsValid() bool {
	_, ok := classNames[c]
	return ok
}

// IsS2 reports whether c belongs to the S2 scheme.
func (c Class) IsS2() bool {
	return c == S2Unauthenticated || c == S2Authenticated || c == S2AccessControl
}

// ParseClass parses a class name. Matching ignores case, and the short forms
// "S2U", "S2A", "S2AC" and "S0" are accepted.
func ParseClass(s string) (Class, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S2_UNAUTHENTICATED", "S2U":
		return S2Unauthenticated, nil
	case "S2_AUTHENTICATED", "S2A":
		return S2Authenticated, nil
	case "S2_ACCESSCONTROL", "S2AC":
		return S2AccessControl, nil
	case "S0_LEGACY", "S0":
		return S0Legacy, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownClass, s)
}

// ClassSet is a set of security classes. The zero value is empty.
type ClassSet uint8

// NewClassSet returns a set holding classes. Unknown classes are ignored.
func NewClassSet(classes ...Class) ClassSet {
	var s ClassSet
	for _, c := range classes {
		s = s.With(c)
	}
	return s
}

// Has reports whether c is in the set.
func (s ClassSet) Has(c Class) bool {
	return c.IsValid() && s&(1<<c) != 0
}

// With returns the set with c added.
func (s ClassSet) With(c Class) ClassSet {
	if !c.IsValid() {
		return s
	}
	return s | 1<<c
}

// Without returns the set with c removed.
func (s ClassSet) Without(c Class) ClassSet {
	if !c.IsValid() {
		return s
	}
	return s &^ (1 << c)
}

// Toggle returns the set with c added when on is true and removed otherwise.
func (s ClassSet) Toggle(c Class, on bool) ClassSet {
	if on {
		return s.With(c)
	}
	return s.Without(c)
}

// Len returns the number of classes in the set.
func (s ClassSet) Len() int {
	return len(s.List())
}

// List returns the classes in ascending order.
func (s ClassSet) List() []Class {
	var out []Class
	for c := range classNames {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Highest returns the highest-tier class in the set.
func (s ClassSet) Highest() (Class, bool) {
	for _, c := range AllClasses {
		if s.Has(c) {
			return c, true
		}
	}
	return 0, false
}

// String returns the class names joined by commas.
func (s ClassSet) String() string {
	names := make([]string, 0, 4)
	for _, c := range s.List() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

// Grant is a set of security classes proposed or granted to a node.
type Grant struct {
	SecurityClasses []Class `cbor:"1,keyasint"`
	ClientSideAuth  bool    `cbor:"2,keyasint"`
}

// Set returns the granted classes as a set.
func (g Grant) Set() ClassSet {
	return NewClassSet(g.SecurityClasses...)
}
