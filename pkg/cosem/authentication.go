package cosem

import (
	"fmt"
	"strings"
)

// Authentication is the association authentication mechanism. Its value
// is the mechanism id carried in the last octet of the authentication
// mechanism name.
type Authentication uint8

const (
	AuthenticationNone Authentication = iota
	AuthenticationLow
	AuthenticationHigh
	AuthenticationHighMD5
	AuthenticationHighSHA1
	AuthenticationHighGMAC
	AuthenticationHighSHA256
	AuthenticationHighECDSA
)

var authenticationNames = []string{
	"None", "Low", "High", "HighMD5", "HighSHA1", "HighGMAC", "HighSHA256", "HighECDSA",
}

// String returns the mechanism name.
func (a Authentication) String() string {
	if int(a) < len(authenticationNames) {
		return authenticationNames[a]
	}
	return fmt.Sprintf("Authentication(%d)", uint8(a))
}

// ParseAuthentication parses a mechanism name, case-insensitively.
func ParseAuthentication(s string) (Authentication, error) {
	for i, n := range authenticationNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Authentication(i), nil
		}
	}
	return AuthenticationNone, fmt.Errorf("invalid authentication %q", s)
}

// UnmarshalYAML parses the mechanism name.
func (a *Authentication) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseAuthentication(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalYAML writes the mechanism name.
func (a Authentication) MarshalYAML() (any, error) {
	return a.String(), nil
}

// mechanismNamePrefix is the encoded object identifier 2.16.756.5.8.2
// that precedes the mechanism id.
var mechanismNamePrefix = []byte{0x60, 0x85, 0x74, 0x05, 0x08, 0x02}

// MechanismName returns the encoded authentication mechanism name.
func (a Authentication) MechanismName() []byte {
	return append(append([]byte(nil), mechanismNamePrefix...), byte(a))
}

// MechanismID extracts the mechanism id from an authentication mechanism
// name. Both the encoded form and a structure of integers are accepted.
func MechanismID(v Value) (Authentication, error) {
	if b, ok := v.Bytes(); ok {
		if len(b) == 0 {
			return 0, fmt.Errorf("empty mechanism name")
		}
		return Authentication(b[len(b)-1]), nil
	}
	if v.Tag.IsComplex() && len(v.Items) > 0 {
		n, ok := v.Items[len(v.Items)-1].Int()
		if !ok {
			return 0, fmt.Errorf("mechanism name ends with %s", v.Items[len(v.Items)-1].Tag)
		}
		return Authentication(n), nil
	}
	return 0, fmt.Errorf("unexpected mechanism name type %s", v.Tag)
}

// DLMSVersion is the protocol version every conformant device reports in
// its xDLMS context info.
const DLMSVersion = 6

// ContextDLMSVersion extracts dlms_version_number from an xDLMS context
// info structure.
func ContextDLMSVersion(v Value) (int, error) {
	if v.Tag != TagStructure || len(v.Items) < 4 {
		return 0, fmt.Errorf("invalid xDLMS context info %s", v)
	}
	n, ok := v.Items[3].Int()
	if !ok {
		return 0, fmt.Errorf("invalid dlms version %s", v.Items[3])
	}
	return int(n), nil
}
