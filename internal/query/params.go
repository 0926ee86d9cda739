// Package query provides the ordered, URL-encoded parameter list used to build
// request query strings. Unlike url.Values it preserves insertion order and
// never deduplicates keys.
package query

import (
	"strings"
)

// Pair is a single unescaped query parameter.
type Pair struct {
	Key   string
	Value string
}

// Params is an ordered list of query parameters. Repeated keys are kept.
type Params []Pair

// Add appends a key/value pair.
func (p *Params) Add(key, value string) {
	*p = append(*p, Pair{Key: key, Value: value})
}

// AddAll appends one pair per value, all sharing key.
func (p *Params) AddAll(key string, values []string) {
	for _, v := range values {
		p.Add(key, v)
	}
}

// AddIfSet appends the pair only when value is non-empty.
func (p *Params) AddIfSet(key, value string) {
	if value != "" {
		p.Add(key, value)
	}
}

// Append adds every pair of other after the existing pairs.
func (p *Params) Append(other Params) {
	*p = append(*p, other...)
}

// Keys returns the keys in order, repeats included.
func (p Params) Keys() []string {
	keys := make([]string, len(p))
	for i := range p {
		keys[i] = p[i].Key
	}
	return keys
}

// Values returns every value recorded for key, in order.
func (p Params) Values(key string) []string {
	var out []string
	for i := range p {
		if p[i].Key == key {
			out = append(out, p[i].Value)
		}
	}
	return out
}

// Encode renders the parameters as key=value pairs joined by '&', escaping
// both sides per RFC 3986.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}

	var b strings.Builder
	for i := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(p[i].Key))
		b.WriteByte('=')
		b.WriteString(Escape(p[i].Value))
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

// Escape percent-encodes s as an RFC 3986 URI component: only the unreserved
// set A-Z a-z 0-9 - _ . ~ is left as is. Spaces become %20.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
