package keys

import (
	"strconv"
	"strings"
)

// Region returns the store key for key inside region.
// The region is length-prefixed so "a:b"+"c" and "a"+"b:c" never collide:
//
//	<prefix><len(region)>:<region>:<key>
func Region(prefix, region, key string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 4 + len(region) + len(key))
	writeRegion(&b, prefix, region)
	b.WriteString(key)
	return b.String()
}

// RegionPrefix is the common prefix of every store key of region.
func RegionPrefix(prefix, region string) string {
	var b strings.Builder
	writeRegion(&b, prefix, region)
	return b.String()
}

// RegionPattern is a SCAN MATCH glob selecting every key of region.
func RegionPattern(prefix, region string) string {
	return EscapeGlob(RegionPrefix(prefix, region)) + "*"
}

// Generational returns the key for key inside generation gen of region:
//
//	<len(region)>:<region>@<gen>:<key>
func Generational(region string, gen uint64, key string) string {
	var b strings.Builder
	b.Grow(4 + len(region) + 21 + len(key))
	b.WriteString(strconv.Itoa(len(region)))
	b.WriteByte(':')
	b.WriteString(region)
	b.WriteByte('@')
	b.WriteString(strconv.FormatUint(gen, 10))
	b.WriteByte(':')
	b.WriteString(key)
	return b.String()
}

// EscapeGlob escapes the redis glob metacharacters in s.
func EscapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\^`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func writeRegion(b *strings.Builder, prefix, region string) {
	b.WriteString(prefix)
	b.WriteString(strconv.Itoa(len(region)))
	b.WriteByte(':')
	b.WriteString(region)
	b.WriteByte(':')
}
