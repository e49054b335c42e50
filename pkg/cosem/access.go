package cosem

import (
	"fmt"
	"strings"
)

// Access flags for attributes.
type Access uint8

// AccessNone denies every operation.
const AccessNone Access = 0

const (
	// AccessRead allows reading the attribute.
	AccessRead Access = 1 << iota

	// AccessWrite allows writing the attribute.
	AccessWrite

	// AccessReadWrite is read and write.
	AccessReadWrite = AccessRead | AccessWrite
)

// CanRead returns true if reading is allowed.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite returns true if writing is allowed.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// String returns the access flags as a string.
func (a Access) String() string {
	var s string
	if a.CanRead() {
		s += "R"
	}
	if a.CanWrite() {
		s += "W"
	}
	if s == "" {
		return "-"
	}
	return s
}

// ParseAccess parses "r", "w", "rw" or "-" (case-insensitive).
func ParseAccess(s string) (Access, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "-", "none":
		return AccessNone, nil
	case "r", "read":
		return AccessRead, nil
	case "w", "write":
		return AccessWrite, nil
	case "rw", "wr", "readwrite":
		return AccessReadWrite, nil
	}
	return AccessNone, fmt.Errorf("invalid access %q", s)
}

// UnmarshalYAML parses the textual access form.
func (a *Access) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseAccess(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MethodAccess describes whether a method may be invoked.
type MethodAccess uint8

const (
	// MethodNoAccess forbids invoking the method.
	MethodNoAccess MethodAccess = iota
	// MethodAccessAllowed allows invoking the method.
	MethodAccessAllowed
	// MethodAuthenticatedAccess allows invoking the method on an
	// authenticated association only.
	MethodAuthenticatedAccess
)

// String returns the method access name.
func (m MethodAccess) String() string {
	switch m {
	case MethodNoAccess:
		return "no-access"
	case MethodAccessAllowed:
		return "access"
	case MethodAuthenticatedAccess:
		return "authenticated-access"
	default:
		return "unknown"
	}
}

// UnmarshalYAML parses "none", "access" or "authenticated".
func (m *MethodAccess) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "none", "no-access":
		*m = MethodNoAccess
	case "access", "x":
		*m = MethodAccessAllowed
	case "authenticated", "authenticated-access":
		*m = MethodAuthenticatedAccess
	default:
		return fmt.Errorf("invalid method access %q", s)
	}
	return nil
}
