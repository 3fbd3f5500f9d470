// Package rrdata defines the per-type DNS record payloads shared by the
// zonefile parser and the wire codec. A zone-file record and an on-the-wire
// resource record ultimately hold the same RDATA; this package is the single
// place that shape is defined so neither side has to agree with the other by
// convention.
package rrdata

import (
	"encoding/base64"
	"fmt"
	"net"
)

// Record type numbers, RFC 1035 / RFC 4034. Only the types this tool parses
// structurally are named; anything else is carried as Generic.
const (
	TypeA      uint16 = 1
	TypeNS     uint16 = 2
	TypeCNAME  uint16 = 5
	TypeSOA    uint16 = 6
	TypePTR    uint16 = 12
	TypeMX     uint16 = 15
	TypeTXT    uint16 = 16
	TypeAAAA   uint16 = 28
	TypeDNAME  uint16 = 39
	TypeDS     uint16 = 43
	TypeDNSKEY uint16 = 48
)

// Class numbers, RFC 1035 section 3.2.4.
const (
	ClassIN uint16 = 1
	ClassCS uint16 = 2
	ClassCH uint16 = 3
	ClassHS uint16 = 4
)

var typeNames = map[uint16]string{
	TypeA:      "A",
	TypeNS:     "NS",
	TypeCNAME:  "CNAME",
	TypeSOA:    "SOA",
	TypePTR:    "PTR",
	TypeMX:     "MX",
	TypeTXT:    "TXT",
	TypeAAAA:   "AAAA",
	TypeDNAME:  "DNAME",
	TypeDS:     "DS",
	TypeDNSKEY: "DNSKEY",
}

// TypeToString renders a record type number the way zone files and log lines
// do, falling back to "TYPE<n>" for anything not named above.
func TypeToString(t uint16) string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", t)
}

var stringToType = func() map[string]uint16 {
	m := make(map[string]uint16, len(typeNames))
	for n, s := range typeNames {
		m[s] = n
	}
	return m
}()

// StringToType is the inverse of TypeToString for the named types.
func StringToType(s string) (uint16, bool) {
	t, ok := stringToType[s]
	return t, ok
}

var classNames = map[uint16]string{
	ClassIN: "IN",
	ClassCS: "CS",
	ClassCH: "CH",
	ClassHS: "HS",
}

// ClassToString renders a class number, falling back to "CLASS<n>" for
// anything not named above.
func ClassToString(c uint16) string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CLASS%d", c)
}

var stringToClass = func() map[string]uint16 {
	m := make(map[string]uint16, len(classNames))
	for n, s := range classNames {
		m[s] = n
	}
	return m
}()

// StringToClass is the inverse of ClassToString.
func StringToClass(s string) (uint16, bool) {
	c, ok := stringToClass[s]
	return c, ok
}

// RDATA is implemented by every concrete record payload. Implementations are
// pointer receivers so owner-name qualification (run as a second pass over a
// parsed zone) can rewrite embedded names in place.
type RDATA interface {
	Type() uint16
	String() string
}

// A is the RDATA of an A record: one IPv4 address.
type A struct {
	IP net.IP
}

func (r *A) Type() uint16   { return TypeA }
func (r *A) String() string { return r.IP.String() }

// AAAA is the RDATA of an AAAA record: one IPv6 address.
type AAAA struct {
	IP net.IP
}

func (r *AAAA) Type() uint16   { return TypeAAAA }
func (r *AAAA) String() string { return r.IP.String() }

// NameRR is the RDATA shape shared by NS, CNAME, DNAME, and PTR records: a
// single target name. RRType records which of the four this instance is.
type NameRR struct {
	RRType uint16
	Name   string
}

func (r *NameRR) Type() uint16   { return r.RRType }
func (r *NameRR) String() string { return r.Name }

// MX is the RDATA of an MX record.
type MX struct {
	Preference uint16
	Target     string
}

func (r *MX) Type() uint16   { return TypeMX }
func (r *MX) String() string { return fmt.Sprintf("%d %s", r.Preference, r.Target) }

// TXT is the RDATA of a TXT record: one or more character-strings,
// concatenated into a single byte string by the parser.
type TXT struct {
	Text []byte
}

func (r *TXT) Type() uint16   { return TypeTXT }
func (r *TXT) String() string { return string(r.Text) }

// SOA is the RDATA of a start-of-authority record.
type SOA struct {
	MName   string
	RName   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func (r *SOA) Type() uint16 { return TypeSOA }
func (r *SOA) String() string {
	return fmt.Sprintf("%s %s %d %d %d %d %d", r.MName, r.RName, r.Serial, r.Refresh, r.Retry, r.Expire, r.Minimum)
}

// DS is the RDATA of a delegation-signer record.
type DS struct {
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     []byte
}

func (r *DS) Type() uint16 { return TypeDS }
func (r *DS) String() string {
	return fmt.Sprintf("%d %d %d %x", r.KeyTag, r.Algorithm, r.DigestType, r.Digest)
}

// DNSKEY is the RDATA of a DNSKEY record.
type DNSKEY struct {
	Flags     uint16
	Protocol  uint8
	Algorithm uint8
	PublicKey []byte
}

func (r *DNSKEY) Type() uint16 { return TypeDNSKEY }
func (r *DNSKEY) String() string {
	return fmt.Sprintf("%d %d %d %s", r.Flags, r.Protocol, r.Algorithm, base64.StdEncoding.EncodeToString(r.PublicKey))
}

// Generic is the RDATA fallback for any type this tool does not parse
// structurally. Raw holds the wire bytes when decoded from the network;
// Tokens holds the zone-file tokens when parsed from text. Exactly one is
// populated depending on origin.
type Generic struct {
	RRType uint16
	Raw    []byte
	Tokens []string
}

func (r *Generic) Type() uint16 { return r.RRType }
func (r *Generic) String() string {
	if r.Tokens != nil {
		return fmt.Sprintf("%v", r.Tokens)
	}
	return fmt.Sprintf("%x", r.Raw)
}

// IsNameType reports whether t's RDATA carries a single target name in the
// shape NameRR models (NS, CNAME, DNAME, PTR).
func IsNameType(t uint16) bool {
	switch t {
	case TypeNS, TypeCNAME, TypeDNAME, TypePTR:
		return true
	}
	return false
}
