package cosem

import "strings"

// Conformance is the negotiated service bit set. Bit 0 is the most
// significant bit of the 24-bit block.
type Conformance uint32

// ConformanceBit returns the mask of bit n.
func ConformanceBit(n int) Conformance {
	return Conformance(1) << (23 - n)
}

// Named conformance bits.
var (
	ConformanceGeneralProtection    = ConformanceBit(1)
	ConformanceGeneralBlockTransfer = ConformanceBit(2)
	ConformanceRead                 = ConformanceBit(3)
	ConformanceWrite                = ConformanceBit(4)
	ConformanceUnconfirmedWrite     = ConformanceBit(5)
	ConformanceMultipleReferences   = ConformanceBit(14)
	ConformanceGet                  = ConformanceBit(19)
	ConformanceSet                  = ConformanceBit(20)
	ConformanceSelectiveAccess      = ConformanceBit(21)
	ConformanceAction               = ConformanceBit(23)
)

var conformanceNames = [24]string{
	"ReservedZero", "GeneralProtection", "GeneralBlockTransfer", "Read", "Write",
	"UnconfirmedWrite", "DeltaValueEncoding", "ReservedSeven", "Attribute0SupportedWithSet",
	"PriorityMgmtSupported", "Attribute0SupportedWithGet", "BlockTransferWithGetOrRead",
	"BlockTransferWithSetOrWrite", "BlockTransferWithAction", "MultipleReferences",
	"InformationReport", "DataNotification", "Access", "ParameterizedAccess", "Get", "Set",
	"SelectiveAccess", "EventNotification", "Action",
}

// Has reports whether every bit of mask is set.
func (c Conformance) Has(mask Conformance) bool {
	return c&mask == mask
}

// Names lists the set services in bit order.
func (c Conformance) Names() []string {
	var out []string
	for n := 0; n < len(conformanceNames); n++ {
		if c&ConformanceBit(n) != 0 {
			out = append(out, conformanceNames[n])
		}
	}
	return out
}

// String returns the set services separated by ", ".
func (c Conformance) String() string {
	return strings.Join(c.Names(), ", ")
}

// ParseConformance builds a bit set from service names. Unknown names are
// returned separately.
func ParseConformance(names []string) (Conformance, []string) {
	var c Conformance
	var unknown []string
	for _, name := range names {
		found := false
		for n, cn := range conformanceNames {
			if strings.EqualFold(cn, strings.TrimSpace(name)) {
				c |= ConformanceBit(n)
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, name)
		}
	}
	return c, unknown
}
