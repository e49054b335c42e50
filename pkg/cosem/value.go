package cosem

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Tag is a DLMS data type tag.
type Tag uint8

// DLMS data tags.
const (
	TagNull        Tag = 0
	TagArray       Tag = 1
	TagStructure   Tag = 2
	TagBoolean     Tag = 3
	TagBitString   Tag = 4
	TagInt32       Tag = 5
	TagUInt32      Tag = 6
	TagOctetString Tag = 9
	TagString      Tag = 10
	TagUTF8String  Tag = 12
	TagInt8        Tag = 15
	TagInt16       Tag = 16
	TagUInt8       Tag = 17
	TagUInt16      Tag = 18
	TagInt64       Tag = 20
	TagUInt64      Tag = 21
	TagEnum        Tag = 22
	TagFloat32     Tag = 23
	TagFloat64     Tag = 24
	TagDateTime    Tag = 25
	TagDate        Tag = 26
	TagTime        Tag = 27
)

// tagNames are the element names used for each tag in PDU documents.
var tagNames = map[Tag]string{
	TagNull:        "Null",
	TagArray:       "Array",
	TagStructure:   "Structure",
	TagBoolean:     "Boolean",
	TagBitString:   "BitString",
	TagInt32:       "Int32",
	TagUInt32:      "UInt32",
	TagOctetString: "OctetString",
	TagString:      "String",
	TagUTF8String:  "UTF8String",
	TagInt8:        "Int8",
	TagInt16:       "Int16",
	TagUInt8:       "UInt8",
	TagUInt16:      "UInt16",
	TagInt64:       "Int64",
	TagUInt64:      "UInt64",
	TagEnum:        "Enum",
	TagFloat32:     "Float32",
	TagFloat64:     "Float64",
	TagDateTime:    "DateTime",
	TagDate:        "Date",
	TagTime:        "Time",
}

// String returns the PDU element name of the tag.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Tag" + strconv.Itoa(int(t))
}

// ParseTag resolves an element name ("UInt32") or a relaxed spelling
// ("uint32", "octet-string") to its tag.
func ParseTag(name string) (Tag, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", ""))
	for t, n := range tagNames {
		if strings.ToLower(n) == norm {
			return t, true
		}
	}
	return TagNull, false
}

// IsComplex reports whether values of this tag hold child items.
func (t Tag) IsComplex() bool {
	return t == TagArray || t == TagStructure
}

func (t Tag) isSigned() bool {
	switch t {
	case TagInt8, TagInt16, TagInt32, TagInt64:
		return true
	}
	return false
}

func (t Tag) isUnsigned() bool {
	switch t {
	case TagUInt8, TagUInt16, TagUInt32, TagUInt64, TagEnum:
		return true
	}
	return false
}

// Value is a typed COSEM data value.
//
// Data holds one of nil, bool, int64, uint64, float64, string or []byte
// depending on Tag. Arrays and structures keep their elements in Items.
type Value struct {
	Tag   Tag
	Data  any
	Items []Value
}

// Null returns the null-data value.
func Null() Value { return Value{Tag: TagNull} }

// NewInt returns a signed integer value of the given tag.
func NewInt(tag Tag, v int64) Value { return Value{Tag: tag, Data: v} }

// NewUint returns an unsigned integer value of the given tag.
func NewUint(tag Tag, v uint64) Value { return Value{Tag: tag, Data: v} }

// NewBool returns a boolean value.
func NewBool(v bool) Value { return Value{Tag: TagBoolean, Data: v} }

// NewOctetString returns an octet-string value.
func NewOctetString(b []byte) Value { return Value{Tag: TagOctetString, Data: b} }

// NewString returns a visible-string value.
func NewString(s string) Value { return Value{Tag: TagString, Data: s} }

// NewStructure returns a structure of the given items.
func NewStructure(items ...Value) Value { return Value{Tag: TagStructure, Items: items} }

// NewArray returns an array of the given items.
func NewArray(items ...Value) Value { return Value{Tag: TagArray, Items: items} }

// Bytes returns the octet string payload.
func (v Value) Bytes() ([]byte, bool) {
	b, ok := v.Data.([]byte)
	return b, ok
}

// Int returns the value as int64 for any integer tag.
func (v Value) Int() (int64, bool) {
	switch n := v.Data.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	c := Value{Tag: v.Tag, Data: v.Data}
	if b, ok := v.Data.([]byte); ok {
		c.Data = append([]byte(nil), b...)
	}
	if v.Items != nil {
		c.Items = make([]Value, len(v.Items))
		for i, it := range v.Items {
			c.Items[i] = it.Clone()
		}
	}
	return c
}

// Equal reports whether two values have the same tag and content.
func (v Value) Equal(o Value) bool {
	if v.Tag != o.Tag || len(v.Items) != len(o.Items) {
		return false
	}
	for i := range v.Items {
		if !v.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	if b, ok := v.Data.([]byte); ok {
		ob, ok := o.Data.([]byte)
		return ok && bytes.Equal(b, ob)
	}
	return v.Data == o.Data
}

// Text returns the scalar text used in PDU documents: decimal integers,
// upper-case hex octet strings, raw strings, "true"/"false" booleans.
// Complex values and null return an empty string.
func (v Value) Text() string {
	switch d := v.Data.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(d)
	case int64:
		return strconv.FormatInt(d, 10)
	case uint64:
		return strconv.FormatUint(d, 10)
	case float64:
		return strconv.FormatFloat(d, 'g', -1, 64)
	case string:
		return d
	case []byte:
		return strings.ToUpper(hex.EncodeToString(d))
	}
	return fmt.Sprint(v.Data)
}

// String renders the value for logs: scalars as Text, complex values as
// "{a, b}".
func (v Value) String() string {
	if v.Tag.IsComplex() {
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = it.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return v.Text()
}

// ParseValueText builds a scalar value of the given tag from its PDU text.
func ParseValueText(tag Tag, text string) (Value, error) {
	text = strings.TrimSpace(text)
	switch {
	case tag == TagNull:
		return Null(), nil
	case tag.IsComplex():
		return Value{Tag: tag}, nil
	case tag == TagBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("invalid %s %q: %w", tag, text, err)
		}
		return NewBool(b), nil
	case tag.isSigned():
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid %s %q: %w", tag, text, err)
		}
		return NewInt(tag, n), nil
	case tag.isUnsigned():
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid %s %q: %w", tag, text, err)
		}
		return NewUint(tag, n), nil
	case tag == TagFloat32 || tag == TagFloat64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid %s %q: %w", tag, text, err)
		}
		return Value{Tag: tag, Data: f}, nil
	case tag == TagOctetString || tag == TagDateTime || tag == TagDate || tag == TagTime:
		b, err := hex.DecodeString(strings.ReplaceAll(text, " ", ""))
		if err != nil {
			return Value{}, fmt.Errorf("invalid %s %q: %w", tag, text, err)
		}
		return Value{Tag: tag, Data: b}, nil
	}
	return Value{Tag: tag, Data: text}, nil
}

// yamlValue is the profile file form of a Value.
type yamlValue struct {
	Type  string  `yaml:"type"`
	Value string  `yaml:"value"`
	Items []Value `yaml:"items"`
}

// UnmarshalYAML reads {type: uint32, value: 42} or
// {type: structure, items: [...]}.
func (v *Value) UnmarshalYAML(unmarshal func(any) error) error {
	var raw yamlValue
	if err := unmarshal(&raw); err != nil {
		return err
	}
	tag, ok := ParseTag(raw.Type)
	if !ok {
		return fmt.Errorf("unknown value type %q", raw.Type)
	}
	val, err := ParseValueText(tag, raw.Value)
	if err != nil {
		return err
	}
	if tag.IsComplex() {
		val.Items = raw.Items
	}
	*v = val
	return nil
}
