package cosem

import "testing"

func TestFormatDateTime(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "date-time without deviation",
			in:   []byte{0x07, 0xE6, 0x03, 0x0F, 0x02, 0x0A, 0x1E, 0x00, 0xFF, 0x80, 0x00, 0x00},
			want: "2022-03-15 10:30:00",
		},
		{
			name: "date-time with deviation",
			in:   []byte{0x07, 0xE6, 0x03, 0x0F, 0x02, 0x0A, 0x1E, 0x00, 0xFF, 0xFF, 0xC4, 0x00},
			want: "2022-03-15 10:30:00 -60",
		},
		{
			name: "date with unspecified year",
			in:   []byte{0xFF, 0xFF, 0x0C, 0x19, 0xFF},
			want: "*-12-25",
		},
		{
			name: "time with unspecified seconds",
			in:   []byte{0x17, 0x3B, 0xFF, 0xFF},
			want: "23:59:*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatDateTime(tt.in)
			if err != nil {
				t.Fatalf("FormatDateTime failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	if _, err := FormatDateTime([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for 3 bytes")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		dt   DataType
		want string
	}{
		{"string", NewOctetString([]byte("MTR-01")), DataTypeString, "MTR-01"},
		{"latin1", NewOctetString([]byte{0x43, 0x61, 0x66, 0xE9}), DataTypeString, "Café"},
		{"logical name", NewOctetString([]byte{0, 0, 40, 0, 0, 255}), DataTypeLogicalName, "0.0.40.0.0.255"},
		{"bytes", NewOctetString([]byte{0x01, 0xAB}), DataTypeNone, "01 AB"},
		{"bad date falls back to hex", NewOctetString([]byte{0x01}), DataTypeDateTime, "01"},
		{"number", NewUint(TagUInt32, 42), DataTypeNone, "42"},
		{"visible string", NewString("abc"), DataTypeNone, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.v, tt.dt); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
