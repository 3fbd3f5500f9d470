package zonefile

import (
	"encoding/base64"
	"encoding/hex"
	"net"
	"strconv"
	"strings"

	"github.com/bpwilder/delegaudit/rrdata"
)

func parseRDATA(rtype uint16, toks []Token) (rrdata.RDATA, error) {
	switch rtype {
	case rrdata.TypeA:
		return parseA(toks)
	case rrdata.TypeAAAA:
		return parseAAAA(toks)
	case rrdata.TypeNS, rrdata.TypeCNAME, rrdata.TypeDNAME, rrdata.TypePTR:
		return parseNameRR(rtype, toks)
	case rrdata.TypeMX:
		return parseMX(toks)
	case rrdata.TypeTXT:
		return parseTXT(toks)
	case rrdata.TypeSOA:
		return parseSOA(toks)
	case rrdata.TypeDS:
		return parseDS(toks)
	case rrdata.TypeDNSKEY:
		return parseDNSKEY(toks)
	default:
		texts := make([]string, len(toks))
		for i, t := range toks {
			texts[i] = t.Text
		}
		return &rrdata.Generic{RRType: rtype, Tokens: texts}, nil
	}
}

func fieldErr(toks []Token, msg string) error {
	line := 0
	if len(toks) > 0 {
		line = toks[0].Line
	}
	return &ParseError{Line: line, Msg: msg}
}

func parseA(toks []Token) (*rrdata.A, error) {
	if len(toks) != 1 {
		return nil, fieldErr(toks, "A record requires exactly one address")
	}
	ip := net.ParseIP(toks[0].Text).To4()
	if ip == nil {
		return nil, fieldErr(toks, "invalid IPv4 address: "+toks[0].Text)
	}
	return &rrdata.A{IP: ip}, nil
}

func parseAAAA(toks []Token) (*rrdata.AAAA, error) {
	if len(toks) != 1 {
		return nil, fieldErr(toks, "AAAA record requires exactly one address")
	}
	ip := net.ParseIP(toks[0].Text)
	if ip == nil || ip.To4() != nil {
		return nil, fieldErr(toks, "invalid IPv6 address: "+toks[0].Text)
	}
	return &rrdata.AAAA{IP: ip}, nil
}

func parseNameRR(rtype uint16, toks []Token) (*rrdata.NameRR, error) {
	if len(toks) != 1 {
		return nil, fieldErr(toks, "record requires exactly one target name")
	}
	return &rrdata.NameRR{RRType: rtype, Name: toks[0].Text}, nil
}

func parseMX(toks []Token) (*rrdata.MX, error) {
	if len(toks) != 2 {
		return nil, fieldErr(toks, "MX record requires a preference and a target name")
	}
	pref, err := strconv.ParseUint(toks[0].Text, 10, 16)
	if err != nil {
		return nil, fieldErr(toks, "invalid MX preference: "+toks[0].Text)
	}
	return &rrdata.MX{Preference: uint16(pref), Target: toks[1].Text}, nil
}

func parseTXT(toks []Token) (*rrdata.TXT, error) {
	if len(toks) == 0 {
		return nil, fieldErr(toks, "TXT record requires at least one string")
	}
	var b []byte
	for _, t := range toks {
		b = append(b, []byte(t.Text)...)
	}
	return &rrdata.TXT{Text: b}, nil
}

func parseSOA(toks []Token) (*rrdata.SOA, error) {
	if len(toks) != 7 {
		return nil, fieldErr(toks, "SOA record requires mname, rname, and five integers")
	}
	nums := make([]uint32, 5)
	for i := 0; i < 5; i++ {
		n, err := strconv.ParseUint(toks[2+i].Text, 10, 32)
		if err != nil {
			return nil, fieldErr(toks, "invalid SOA integer: "+toks[2+i].Text)
		}
		nums[i] = uint32(n)
	}
	return &rrdata.SOA{
		MName:   toks[0].Text,
		RName:   toks[1].Text,
		Serial:  nums[0],
		Refresh: nums[1],
		Retry:   nums[2],
		Expire:  nums[3],
		Minimum: nums[4],
	}, nil
}

func parseDS(toks []Token) (*rrdata.DS, error) {
	if len(toks) < 4 {
		return nil, fieldErr(toks, "DS record requires keytag, algorithm, digest type, and a digest")
	}
	keytag, err := strconv.ParseUint(toks[0].Text, 10, 16)
	if err != nil {
		return nil, fieldErr(toks, "invalid DS key tag: "+toks[0].Text)
	}
	alg, err := strconv.ParseUint(toks[1].Text, 10, 8)
	if err != nil {
		return nil, fieldErr(toks, "invalid DS algorithm: "+toks[1].Text)
	}
	digType, err := strconv.ParseUint(toks[2].Text, 10, 8)
	if err != nil {
		return nil, fieldErr(toks, "invalid DS digest type: "+toks[2].Text)
	}

	var hexDigest strings.Builder
	for _, t := range toks[3:] {
		hexDigest.WriteString(t.Text)
	}
	digest, err := hex.DecodeString(hexDigest.String())
	if err != nil {
		return nil, fieldErr(toks, "invalid DS digest hex: "+err.Error())
	}

	return &rrdata.DS{
		KeyTag:     uint16(keytag),
		Algorithm:  uint8(alg),
		DigestType: uint8(digType),
		Digest:     digest,
	}, nil
}

func parseDNSKEY(toks []Token) (*rrdata.DNSKEY, error) {
	if len(toks) < 4 {
		return nil, fieldErr(toks, "DNSKEY record requires flags, protocol, algorithm, and a public key")
	}
	flags, err := strconv.ParseUint(toks[0].Text, 10, 16)
	if err != nil {
		return nil, fieldErr(toks, "invalid DNSKEY flags: "+toks[0].Text)
	}
	proto, err := strconv.ParseUint(toks[1].Text, 10, 8)
	if err != nil {
		return nil, fieldErr(toks, "invalid DNSKEY protocol: "+toks[1].Text)
	}
	alg, err := strconv.ParseUint(toks[2].Text, 10, 8)
	if err != nil {
		return nil, fieldErr(toks, "invalid DNSKEY algorithm: "+toks[2].Text)
	}

	var b64 strings.Builder
	for _, t := range toks[3:] {
		b64.WriteString(t.Text)
	}
	key, err := base64.StdEncoding.DecodeString(b64.String())
	if err != nil {
		return nil, fieldErr(toks, "invalid DNSKEY public key base64: "+err.Error())
	}

	return &rrdata.DNSKEY{
		Flags:     uint16(flags),
		Protocol:  uint8(proto),
		Algorithm: uint8(alg),
		PublicKey: key,
	}, nil
}
