package cosem

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// FormatValue renders a value for humans according to the attribute's
// display type. Octet strings become text, dates or logical names; other
// values use their PDU text.
func FormatValue(v Value, t DataType) string {
	b, ok := v.Bytes()
	if !ok {
		if s, ok := v.Data.(string); ok {
			return s
		}
		return v.String()
	}
	switch t {
	case DataTypeString:
		return decodeVisible(b)
	case DataTypeLogicalName:
		return FormatLogicalName(b)
	case DataTypeDateTime, DataTypeDate, DataTypeTime:
		if s, err := FormatDateTime(b); err == nil {
			return s
		}
	}
	return formatHex(b)
}

// decodeVisible decodes Latin-1 text as sent by meters.
func decodeVisible(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return formatHex(b)
	}
	return string(s)
}

func formatHex(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, " ")
}

// FormatDateTime renders a COSEM date-time (12 bytes), date (5 bytes) or
// time (4 bytes). Unspecified fields are shown as "*".
func FormatDateTime(b []byte) (string, error) {
	switch len(b) {
	case 12:
		return formatDate(b[:5]) + " " + formatTime(b[5:9]) + formatDeviation(b[9:11]), nil
	case 5:
		return formatDate(b), nil
	case 4:
		return formatTime(b), nil
	}
	return "", fmt.Errorf("invalid date-time length %d", len(b))
}

func formatDate(b []byte) string {
	year := binary.BigEndian.Uint16(b[0:2])
	y := "*"
	if year != 0xFFFF {
		y = fmt.Sprintf("%04d", year)
	}
	return fmt.Sprintf("%s-%s-%s", y, field(b[2], 0xFF, 0xFD, 0xFE), field(b[3], 0xFF, 0xFD, 0xFE))
}

func formatTime(b []byte) string {
	return fmt.Sprintf("%s:%s:%s", field(b[0], 0xFF), field(b[1], 0xFF), field(b[2], 0xFF))
}

func formatDeviation(b []byte) string {
	dev := int16(binary.BigEndian.Uint16(b))
	if uint16(dev) == 0x8000 {
		return ""
	}
	return fmt.Sprintf(" %+d", dev)
}

// field renders a date/time field, or "*" when it holds one of the
// not-specified markers.
func field(v byte, unspecified ...byte) string {
	for _, u := range unspecified {
		if v == u {
			return "*"
		}
	}
	return fmt.Sprintf("%02d", v)
}
