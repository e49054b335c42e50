package cosem

import (
	"fmt"
	"strings"
)

// DataType is the display type of an attribute. It decides how a raw
// octet string is rendered for humans.
type DataType uint8

const (
	DataTypeNone DataType = iota
	DataTypeOctetString
	DataTypeString
	DataTypeDateTime
	DataTypeDate
	DataTypeTime
	DataTypeLogicalName
	DataTypeEnum
	DataTypeNumber
)

// String returns the data type name.
func (d DataType) String() string {
	names := []string{
		"none", "octet-string", "string", "date-time", "date", "time",
		"logical-name", "enum", "number",
	}
	if int(d) < len(names) {
		return names[d]
	}
	return "unknown"
}

// ParseDataType parses the names returned by String.
func ParseDataType(s string) (DataType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := DataTypeNone; d <= DataTypeNumber; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return DataTypeNone, fmt.Errorf("invalid data type %q", s)
}

// UnmarshalYAML parses the textual data type.
func (d *DataType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseDataType(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
