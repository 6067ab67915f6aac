package dkim

import "strings"

const upperHex = "0123456789ABCDEF"

// quotedPrintable encodes s as DKIM-Quoted-Printable (RFC 4871 Section
// 2.6). Everything outside the printable ASCII range is escaped, and so are
// ";" and "=" and space since they delimit tags. No soft line breaks are
// produced.
func quotedPrintable(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isQPSafe(ch) {
			b.WriteByte(ch)
			continue
		}

		b.WriteByte('=')
		b.WriteByte(upperHex[ch>>4])
		b.WriteByte(upperHex[ch&0x0f])
	}

	return b.String()
}

func isQPSafe(ch byte) bool {
	return (ch >= 0x21 && ch <= 0x3a) || ch == 0x3c || (ch >= 0x3e && ch <= 0x7e)
}

// zTagValue renders the copied header fields of the z= tag.
func zTagValue(fields []headerField) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		value := quotedPrintable(strings.TrimSpace(f.value))
		parts = append(parts, strings.TrimSpace(f.name)+":"+strings.ReplaceAll(value, "|", "=7C"))
	}

	return strings.Join(parts, "|")
}
