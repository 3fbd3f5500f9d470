package wire

import (
	"errors"
	"fmt"
	"net"

	"github.com/bpwilder/delegaudit/rrdata"
)

// Question is one entry of a message's question section.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// RR is one decoded resource record.
type RR struct {
	Name  string
	Type  uint16
	Class uint16
	TTL   int32
	RDATA rrdata.RDATA
}

// Message is a fully decoded DNS message.
type Message struct {
	ID     uint16
	QR     bool
	Opcode uint8
	AA     bool
	TC     bool
	RD     bool
	RA     bool
	Rcode  uint8

	Question   []Question
	Answer     []RR
	Authority  []RR
	Additional []RR
}

// EncodeQuery builds a single-question query message: opcode QUERY, one
// question, RD set per the rd argument, and no other sections. This is the
// only message shape this tool ever writes to the wire.
func EncodeQuery(id uint16, q Question, rd bool) ([]byte, error) {
	qname, err := encodeName(q.Name)
	if err != nil {
		return nil, fmt.Errorf("encode question name: %w", err)
	}

	h := header{id: id, rd: rd, qd: 1}
	buf := encodeHeader(h)
	buf = append(buf, qname...)
	buf = appendBE16(buf, q.Type)
	buf = appendBE16(buf, q.Class)

	return buf, nil
}

// Decode parses a complete DNS message. A malformed header is fatal;
// malformed individual resource records truncate the section they occur in
// rather than failing the whole decode, per this tool's error-handling
// design (the position after a bad record can't be trusted, so nothing
// after it in the message is attempted either).
func Decode(msg []byte) (*Message, error) {
	if len(msg) < 12 {
		return nil, errors.New("message shorter than header")
	}

	h, err := decodeHeader(msg[:12])
	if err != nil {
		return nil, err
	}

	m := &Message{
		ID: h.id, QR: h.qr, Opcode: h.opcode, AA: h.aa, TC: h.tc,
		RD: h.rd, RA: h.ra, Rcode: h.rcode,
	}

	pos := 12

	for i := 0; i < int(h.qd); i++ {
		name, next, err := decodeName(msg, pos)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		if next+4 > len(msg) {
			return nil, fmt.Errorf("question %d: truncated", i)
		}
		m.Question = append(m.Question, Question{
			Name:  name,
			Type:  be16(msg[next:]),
			Class: be16(msg[next+2:]),
		})
		pos = next + 4
	}

	decodeSection := func(count uint16) []RR {
		var out []RR
		for i := 0; i < int(count); i++ {
			rr, next, err := decodeRR(msg, pos)
			if err != nil {
				break
			}
			out = append(out, rr)
			pos = next
		}
		return out
	}

	m.Answer = decodeSection(h.an)
	m.Authority = decodeSection(h.ns)
	m.Additional = decodeSection(h.ar)

	return m, nil
}

func decodeRR(msg []byte, pos int) (RR, int, error) {
	name, next, err := decodeName(msg, pos)
	if err != nil {
		return RR{}, 0, err
	}
	if next+10 > len(msg) {
		return RR{}, 0, errors.New("RR header truncated")
	}

	typ := be16(msg[next:])
	class := be16(msg[next+2:])
	ttl := int32(be32(msg[next+4:]))
	rdlen := be16(msg[next+8:])

	start := next + 10
	end := start + int(rdlen)
	if end > len(msg) {
		return RR{}, 0, errors.New("RDATA truncated")
	}

	data, err := decodeRDATA(msg, start, int(rdlen), typ)
	if err != nil {
		return RR{}, 0, err
	}

	return RR{Name: name, Type: typ, Class: class, TTL: ttl, RDATA: data}, end, nil
}

func decodeRDATA(msg []byte, start, rdlen int, typ uint16) (rrdata.RDATA, error) {
	end := start + rdlen

	switch typ {
	case rrdata.TypeA:
		if rdlen != 4 {
			return nil, fmt.Errorf("A record: expected 4 bytes, got %d", rdlen)
		}
		ip := make(net.IP, 4)
		copy(ip, msg[start:end])
		return &rrdata.A{IP: ip}, nil

	case rrdata.TypeAAAA:
		if rdlen != 16 {
			return nil, fmt.Errorf("AAAA record: expected 16 bytes, got %d", rdlen)
		}
		ip := make(net.IP, 16)
		copy(ip, msg[start:end])
		return &rrdata.AAAA{IP: ip}, nil

	case rrdata.TypeNS, rrdata.TypeCNAME, rrdata.TypeDNAME, rrdata.TypePTR:
		name, _, err := decodeName(msg, start)
		if err != nil {
			return nil, err
		}
		return &rrdata.NameRR{RRType: typ, Name: name}, nil

	case rrdata.TypeMX:
		if rdlen < 3 {
			return nil, errors.New("MX record too short")
		}
		pref := be16(msg[start:])
		name, _, err := decodeName(msg, start+2)
		if err != nil {
			return nil, err
		}
		return &rrdata.MX{Preference: pref, Target: name}, nil

	case rrdata.TypeSOA:
		mname, next, err := decodeName(msg, start)
		if err != nil {
			return nil, err
		}
		rname, next2, err := decodeName(msg, next)
		if err != nil {
			return nil, err
		}
		if next2+20 > len(msg) {
			return nil, errors.New("SOA record truncated")
		}
		b := msg[next2:]
		return &rrdata.SOA{
			MName:   mname,
			RName:   rname,
			Serial:  be32(b[0:]),
			Refresh: be32(b[4:]),
			Retry:   be32(b[8:]),
			Expire:  be32(b[12:]),
			Minimum: be32(b[16:]),
		}, nil

	case rrdata.TypeTXT:
		raw := make([]byte, rdlen)
		copy(raw, msg[start:end])
		return &rrdata.TXT{Text: raw}, nil

	case rrdata.TypeDS:
		if rdlen < 4 {
			return nil, errors.New("DS record too short")
		}
		digest := make([]byte, rdlen-4)
		copy(digest, msg[start+4:end])
		return &rrdata.DS{
			KeyTag:     be16(msg[start:]),
			Algorithm:  msg[start+2],
			DigestType: msg[start+3],
			Digest:     digest,
		}, nil

	case rrdata.TypeDNSKEY:
		if rdlen < 4 {
			return nil, errors.New("DNSKEY record too short")
		}
		key := make([]byte, rdlen-4)
		copy(key, msg[start+4:end])
		return &rrdata.DNSKEY{
			Flags:     be16(msg[start:]),
			Protocol:  msg[start+2],
			Algorithm: msg[start+3],
			PublicKey: key,
		}, nil

	default:
		raw := make([]byte, rdlen)
		copy(raw, msg[start:end])
		return &rrdata.Generic{RRType: typ, Raw: raw}, nil
	}
}
