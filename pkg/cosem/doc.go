// Package cosem implements the COSEM object model used by the conformance
// test engine.
//
// # Object Model
//
// A metering device exposes COSEM objects. Each object is an instance of an
// interface class (identified by its class id, see ObjectType) and is
// addressed by a six-byte logical name (OBIS code):
//
//	Device
//	├── Clock                    0.0.1.0.0.255
//	├── Association LN           0.0.40.0.0.255
//	├── Data (logical dev name)  0.0.42.0.0.255
//	└── Register (energy)        1.0.1.8.0.255
//
// # Capability Table
//
// Which attributes and methods exist for a class, their names and their
// display types are static data held in a lookup table keyed by ObjectType
// (see Lookup). Older class versions declare fewer attributes; the table
// records the counts per version so that scripts written against a newer
// class revision can be detected and skipped.
//
// # Access Rights
//
// Objects carry the access rights negotiated for the current association:
//   - Attributes: Read, Write (see Access)
//   - Methods: NoAccess, Access, AuthenticatedAccess (see MethodAccess)
//
// # Addressing
//
// Logical names are shown dotted ("0.0.40.0.0.255") and transmitted as six
// bytes, hex-encoded in scripts ("0000280000FF"). ParseLogicalName,
// FormatLogicalName, LogicalNameToHex and HexToLogicalName convert between
// the forms.
package cosem
