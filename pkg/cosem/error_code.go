package cosem

import "strconv"

// ErrorCode is a data-access-result reported by a device.
type ErrorCode uint8

// Data access results.
const (
	ErrorCodeOk                     ErrorCode = 0
	ErrorCodeHardwareFault          ErrorCode = 1
	ErrorCodeTemporaryFailure       ErrorCode = 2
	ErrorCodeReadWriteDenied        ErrorCode = 3
	ErrorCodeUndefinedObject        ErrorCode = 4
	ErrorCodeInconsistentClass      ErrorCode = 9
	ErrorCodeUnavailableObject      ErrorCode = 11
	ErrorCodeTypeUnmatched          ErrorCode = 12
	ErrorCodeAccessViolated         ErrorCode = 13
	ErrorCodeDataBlockUnavailable   ErrorCode = 14
	ErrorCodeLongGetAborted         ErrorCode = 15
	ErrorCodeNoLongGetInProgress    ErrorCode = 16
	ErrorCodeLongSetAborted         ErrorCode = 17
	ErrorCodeNoLongSetInProgress    ErrorCode = 18
	ErrorCodeDataBlockNumberInvalid ErrorCode = 19
	ErrorCodeOtherReason            ErrorCode = 250
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeOk:                     "Ok",
	ErrorCodeHardwareFault:          "HardwareFault",
	ErrorCodeTemporaryFailure:       "TemporaryFailure",
	ErrorCodeReadWriteDenied:        "ReadWriteDenied",
	ErrorCodeUndefinedObject:        "UndefinedObject",
	ErrorCodeInconsistentClass:      "InconsistentClass",
	ErrorCodeUnavailableObject:      "UnavailableObject",
	ErrorCodeTypeUnmatched:          "TypeUnmatched",
	ErrorCodeAccessViolated:         "AccessViolated",
	ErrorCodeDataBlockUnavailable:   "DataBlockUnavailable",
	ErrorCodeLongGetAborted:         "LongGetAborted",
	ErrorCodeNoLongGetInProgress:    "NoLongGetInProgress",
	ErrorCodeLongSetAborted:         "LongSetAborted",
	ErrorCodeNoLongSetInProgress:    "NoLongSetInProgress",
	ErrorCodeDataBlockNumberInvalid: "DataBlockNumberInvalid",
	ErrorCodeOtherReason:            "OtherReason",
}

// String returns the result name, or the number when it is not known.
func (e ErrorCode) String() string {
	if n, ok := errorCodeNames[e]; ok {
		return n
	}
	return strconv.Itoa(int(e))
}

// ParseErrorCode resolves a result name such as "ReadWriteDenied".
func ParseErrorCode(name string) (ErrorCode, bool) {
	for c, n := range errorCodeNames {
		if n == name {
			return c, true
		}
	}
	if v, err := strconv.ParseUint(name, 10, 8); err == nil {
		return ErrorCode(v), true
	}
	return 0, false
}
