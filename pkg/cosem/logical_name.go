package cosem

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// LogicalNameSize is the length of a COSEM logical name in bytes.
const LogicalNameSize = 6

// AssociationViewName is the logical name of the current association
// object.
const AssociationViewName = "0.0.40.0.0.255"

// ParseLogicalName parses the dotted form "1.0.0.2.0.255" into its six
// bytes. An empty string yields six zero bytes.
func ParseLogicalName(ln string) ([]byte, error) {
	out := make([]byte, LogicalNameSize)
	ln = strings.TrimSpace(ln)
	if ln == "" {
		return out, nil
	}
	parts := strings.Split(ln, ".")
	if len(parts) != LogicalNameSize {
		return nil, fmt.Errorf("invalid logical name %q: want %d groups, got %d", ln, LogicalNameSize, len(parts))
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid logical name %q: group %d: %w", ln, i+1, err)
		}
		out[i] = byte(n)
	}
	return out, nil
}

// FormatLogicalName renders six bytes in dotted form.
func FormatLogicalName(b []byte) string {
	if len(b) != LogicalNameSize {
		return strings.ToUpper(hex.EncodeToString(b))
	}
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	return sb.String()
}

// LogicalNameToHex converts "0.0.40.0.0.255" to the instance id form
// used in scripts, "0000280000FF".
func LogicalNameToHex(ln string) (string, error) {
	b, err := ParseLogicalName(ln)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// HexToLogicalName converts a script instance id back to dotted form.
// Spaces between octets are accepted.
func HexToLogicalName(s string) (string, error) {
	b, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if err != nil {
		return "", fmt.Errorf("invalid instance id %q: %w", s, err)
	}
	if len(b) != LogicalNameSize {
		return "", fmt.Errorf("invalid instance id %q: want %d bytes, got %d", s, LogicalNameSize, len(b))
	}
	return FormatLogicalName(b), nil
}

// NormalizeLogicalName accepts either form and returns the dotted one.
func NormalizeLogicalName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") || s == "" {
		b, err := ParseLogicalName(s)
		if err != nil {
			return "", err
		}
		return FormatLogicalName(b), nil
	}
	return HexToLogicalName(s)
}
