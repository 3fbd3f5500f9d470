package wire

// Opcode values, RFC 1035 section 4.1.1. This tool only ever issues QUERY.
const (
	OpcodeQuery uint8 = 0
)

// Rcode values, RFC 1035 section 4.1.1.
const (
	RcodeNoError        uint8 = 0
	RcodeFormatError    uint8 = 1
	RcodeServerFailure  uint8 = 2
	RcodeNameError      uint8 = 3 // NXDOMAIN
	RcodeNotImplemented uint8 = 4
	RcodeRefused        uint8 = 5
)
