package protocol

import (
	"errors"
	"strconv"

	"github.com/google/gopacket/layers"
)

// Protocol is a canonical L4 protocol name as it appears in lookup keys and
// in the report.
type Protocol string

const (
	TCP  Protocol = "tcp"
	UDP  Protocol = "udp"
	ICMP Protocol = "icmp"
)

// ErrInvalid is returned by Normalize for tokens that are neither a known
// protocol number nor a canonical name.
var ErrInvalid = errors.New("invalid protocol")

// byNumber maps the decimal IANA protocol numbers, exactly as written, to
// canonical names. Read-only after init.
var byNumber = map[string]Protocol{
	number(layers.IPProtocolTCP):    TCP,
	number(layers.IPProtocolUDP):    UDP,
	number(layers.IPProtocolICMPv4): ICMP,
}

func number(p layers.IPProtocol) string { return strconv.Itoa(int(p)) }

// Normalize maps a raw protocol token to its canonical name.
//
// The token is expected to be already lower-cased and trimmed. Accepted forms
// are exactly "6", "17" and "1", or one of "tcp", "udp", "icmp"; padded
// numbers such as "06" are invalid.
func Normalize(token string) (Protocol, error) {
	switch p := Protocol(token); p {
	case TCP, UDP, ICMP:
		return p, nil
	}
	if p, ok := byNumber[token]; ok {
		return p, nil
	}
	return "", ErrInvalid
}

func (p Protocol) String() string { return string(p) }
