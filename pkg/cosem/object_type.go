package cosem

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectType is a COSEM interface class id.
type ObjectType uint16

// Interface classes known to the capability table.
const (
	ObjectTypeNone                   ObjectType = 0
	ObjectTypeData                   ObjectType = 1
	ObjectTypeRegister               ObjectType = 3
	ObjectTypeExtendedRegister       ObjectType = 4
	ObjectTypeDemandRegister         ObjectType = 5
	ObjectTypeRegisterActivation     ObjectType = 6
	ObjectTypeProfileGeneric         ObjectType = 7
	ObjectTypeClock                  ObjectType = 8
	ObjectTypeScriptTable            ObjectType = 9
	ObjectTypeSchedule               ObjectType = 10
	ObjectTypeSpecialDaysTable       ObjectType = 11
	ObjectTypeAssociationShortName   ObjectType = 12
	ObjectTypeAssociationLogicalName ObjectType = 15
	ObjectTypeSapAssignment          ObjectType = 17
	ObjectTypeImageTransfer          ObjectType = 18
	ObjectTypeIecLocalPortSetup      ObjectType = 19
	ObjectTypeActivityCalendar       ObjectType = 20
	ObjectTypeRegisterMonitor        ObjectType = 21
	ObjectTypeActionSchedule         ObjectType = 22
	ObjectTypeIecHdlcSetup           ObjectType = 23
	ObjectTypeUtilityTables          ObjectType = 26
	ObjectTypeModemConfiguration     ObjectType = 27
	ObjectTypePushSetup              ObjectType = 40
	ObjectTypeTcpUdpSetup            ObjectType = 41
	ObjectTypeIp4Setup               ObjectType = 42
	ObjectTypeGprsSetup              ObjectType = 45
	ObjectTypeRegisterTable          ObjectType = 61
	ObjectTypeSecuritySetup          ObjectType = 64
	ObjectTypeDisconnectControl      ObjectType = 70
	ObjectTypeLimiter                ObjectType = 71
)

var objectTypeNames = map[ObjectType]string{
	ObjectTypeNone:                   "None",
	ObjectTypeData:                   "Data",
	ObjectTypeRegister:               "Register",
	ObjectTypeExtendedRegister:       "ExtendedRegister",
	ObjectTypeDemandRegister:         "DemandRegister",
	ObjectTypeRegisterActivation:     "RegisterActivation",
	ObjectTypeProfileGeneric:         "ProfileGeneric",
	ObjectTypeClock:                  "Clock",
	ObjectTypeScriptTable:            "ScriptTable",
	ObjectTypeSchedule:               "Schedule",
	ObjectTypeSpecialDaysTable:       "SpecialDaysTable",
	ObjectTypeAssociationShortName:   "AssociationShortName",
	ObjectTypeAssociationLogicalName: "AssociationLogicalName",
	ObjectTypeSapAssignment:          "SapAssignment",
	ObjectTypeImageTransfer:          "ImageTransfer",
	ObjectTypeIecLocalPortSetup:      "IecLocalPortSetup",
	ObjectTypeActivityCalendar:       "ActivityCalendar",
	ObjectTypeRegisterMonitor:        "RegisterMonitor",
	ObjectTypeActionSchedule:         "ActionSchedule",
	ObjectTypeIecHdlcSetup:           "IecHdlcSetup",
	ObjectTypeUtilityTables:          "UtilityTables",
	ObjectTypeModemConfiguration:     "ModemConfiguration",
	ObjectTypePushSetup:              "PushSetup",
	ObjectTypeTcpUdpSetup:            "TcpUdpSetup",
	ObjectTypeIp4Setup:               "Ip4Setup",
	ObjectTypeGprsSetup:              "GprsSetup",
	ObjectTypeRegisterTable:          "RegisterTable",
	ObjectTypeSecuritySetup:          "SecuritySetup",
	ObjectTypeDisconnectControl:      "DisconnectControl",
	ObjectTypeLimiter:                "Limiter",
}

// String returns the interface class name, or "Class<id>" for classes the
// table does not know.
func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return "Class" + strconv.Itoa(int(t))
}

// ParseObjectType accepts either a class name ("Clock") or a numeric class
// id ("8").
func ParseObjectType(s string) (ObjectType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return ObjectType(n), nil
	}
	for t, name := range objectTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return ObjectTypeNone, fmt.Errorf("unknown object type %q", s)
}

// UnmarshalYAML accepts a class name or id.
func (t *ObjectType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseObjectType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalYAML writes the class name when known.
func (t ObjectType) MarshalYAML() (any, error) {
	if _, ok := objectTypeNames[t]; ok {
		return t.String(), nil
	}
	return int(t), nil
}
