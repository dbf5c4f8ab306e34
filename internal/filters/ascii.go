package filters

const hexDigits = "0123456789ABCDEF"

// ASCIIHexEncode returns data as upper-case hex digits, without delimiters.
func ASCIIHexEncode(data []byte) string {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[2*i] = hexDigits[b>>4]
		out[2*i+1] = hexDigits[b&0x0f]
	}
	return string(out)
}
