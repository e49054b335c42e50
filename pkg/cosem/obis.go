package cosem

// Well-known logical names read by every job.
const (
	LogicalDeviceName = "0.0.42.0.0.255"
	FirmwareVersion   = "1.0.0.2.0.255"
	ClockName         = "0.0.1.0.0.255"
)

var obisDescriptions = map[string]string{
	"0.0.1.0.0.255":   "Clock",
	"0.0.10.0.0.255":  "Global meter reset script table",
	"0.0.13.0.0.255":  "Activity calendar",
	"0.0.15.0.0.255":  "End of billing period action schedule",
	"0.0.17.0.0.255":  "Limiter",
	"0.0.22.0.0.255":  "IEC HDLC setup",
	"0.0.25.0.0.255":  "TCP-UDP setup",
	"0.0.25.1.0.255":  "IPv4 setup",
	"0.0.25.9.0.255":  "Push setup",
	"0.0.40.0.0.255":  "Current association",
	"0.0.42.0.0.255":  "COSEM logical device name",
	"0.0.43.0.0.255":  "Security setup",
	"0.0.44.0.0.255":  "Image transfer",
	"0.0.96.1.0.255":  "Meter serial number",
	"0.0.96.3.10.255": "Disconnect control",
	"1.0.0.2.0.255":   "Active firmware identifier",
	"1.0.1.8.0.255":   "Active energy import",
	"1.0.2.8.0.255":   "Active energy export",
	"1.0.99.1.0.255":  "Load profile",
}

// DescribeLogicalName returns a human description of a well-known
// logical name, or an empty string.
func DescribeLogicalName(ln string) string {
	return obisDescriptions[ln]
}

// validMedia are the defined values of value group A.
var validMedia = map[byte]bool{0: true, 1: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 15: true}

// classGroups pins value group C of abstract objects whose class has a
// reserved logical name range.
var classGroups = map[ObjectType]byte{
	ObjectTypeClock:                  1,
	ObjectTypeScriptTable:            10,
	ObjectTypeSpecialDaysTable:       11,
	ObjectTypeSchedule:               12,
	ObjectTypeActivityCalendar:       13,
	ObjectTypeRegisterActivation:     14,
	ObjectTypeActionSchedule:         15,
	ObjectTypeLimiter:                17,
	ObjectTypeIecLocalPortSetup:      20,
	ObjectTypeIecHdlcSetup:           22,
	ObjectTypeAssociationShortName:   40,
	ObjectTypeAssociationLogicalName: 40,
	ObjectTypeSapAssignment:          41,
	ObjectTypeSecuritySetup:          43,
	ObjectTypeImageTransfer:          44,
}

// ValidLogicalName reports whether ln is a plausible OBIS code for an
// object of class t. Value group A must name a defined medium and classes
// with a reserved range must use it.
func ValidLogicalName(t ObjectType, ln string) bool {
	b, err := ParseLogicalName(ln)
	if err != nil {
		return false
	}
	if !validMedia[b[0]] {
		return false
	}
	if c, ok := classGroups[t]; ok {
		return b[0] == 0 && b[2] == c
	}
	return true
}
