package hexcodec

import "fmt"

// DecodeStream converts a hex-digit stream into its byte values. The DXR
// web interface returns these streams as plain text, two characters per
// byte. An empty or odd-length input yields an empty slice; a pair that
// is not valid hex decodes to 0 instead of failing the whole stream.
func DecodeStream(s string) []byte {
	if s == "" || len(s)%2 != 0 {
		return []byte{}
	}

	result := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		result = append(result, decodePair(s[i], s[i+1]))
	}
	return result
}

func decodePair(hi, lo byte) byte {
	h, okHi := hexDigit(hi)
	l, okLo := hexDigit(lo)
	if !okHi || !okLo {
		return 0
	}
	return h<<4 | l
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// EncodeByte formats n as exactly two lowercase hex digits. The command
// protocol carries single-byte payloads only, so values outside 0-255
// are rejected before they reach the wire.
func EncodeByte(n int) (string, error) {
	if n < 0 || n > 255 {
		return "", fmt.Errorf("value %d is not representable as a single byte", n)
	}
	return fmt.Sprintf("%02x", n), nil
}
