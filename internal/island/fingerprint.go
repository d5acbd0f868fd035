package island

import (
	"strconv"
	"strings"
)

// fingerprintAlphabet maps each 6-bit group to one character.
// '-' is not part of it so the nonce suffix can never be confused with a digit.
const fingerprintAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_~"

const bitsPerDigit = 6

// MaxNonce bounds collision disambiguation for a single fingerprint.
const MaxNonce = 4096

// Fingerprint derives a position-independent id from a hexalot's surfaces,
// taken in hexalot traversal order. Land contributes a 1 bit, anything else 0.
// The bit string is zero-padded to a multiple of six.
func Fingerprint(surfaces [HexalotSpotCount]Surface) string {
	digits := (HexalotSpotCount + bitsPerDigit - 1) / bitsPerDigit
	var b strings.Builder
	b.Grow(digits)
	for d := 0; d < digits; d++ {
		value := 0
		for bit := 0; bit < bitsPerDigit; bit++ {
			value <<= 1
			i := d*bitsPerDigit + bit
			if i < HexalotSpotCount && surfaces[i] == SurfaceLand {
				value |= 1
			}
		}
		b.WriteByte(fingerprintAlphabet[value])
	}
	return b.String()
}

// withNonce appends the collision suffix. Nonce zero is the bare fingerprint.
func withNonce(fingerprint string, nonce int) string {
	if nonce == 0 {
		return fingerprint
	}
	return fingerprint + "-" + strconv.Itoa(nonce)
}
