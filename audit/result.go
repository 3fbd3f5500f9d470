package audit

// Flag names one specific way an audit can fail. A single Result may carry
// more than one, though in practice the executor raises at most one flag per
// failure class (nameserver checks vs. address checks).
type Flag string

const (
	// FlagNoAuthoritative means no NS records were observed for the domain:
	// no parent zone was found, no parent nameserver answered, or the first
	// reply carried no NS records in its authority section.
	FlagNoAuthoritative Flag = "NoAuthoritative"

	// FlagAuthoritativeFail means nameservers answered, but the observed set
	// doesn't match the expected set.
	FlagAuthoritativeFail Flag = "AuthoritativeFail"

	// FlagNoResolve means none of the observed nameservers returned any A or
	// AAAA answer for the domain.
	FlagNoResolve Flag = "NoResolve"

	// FlagResolveIPNotMatch means an address was observed, but the observed
	// set doesn't match the expected set.
	FlagResolveIPNotMatch Flag = "ResolveIpNotMatch"
)

// Result is the structured outcome of auditing one Target.
type Result struct {
	Domain  string   `json:"domain_name"`
	Success bool     `json:"success"`
	Reasons []string `json:"reason"`
	Flags   []Flag   `json:"flags"`

	ObservedNS  []string `json:"nameservers,omitempty"`
	ObservedIPs []string `json:"ips,omitempty"`
}
