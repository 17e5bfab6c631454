package rainbow

import "encoding/binary"

const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	minReducedLength  = 6
	reducedLengthSpan = 3
)

// Reduce maps a digest and a chain position to a 6-8 character candidate
// drawn from Alphabet. Tables generated by earlier versions depend on this
// exact mapping.
func Reduce(d Digest, position int) string {
	num := binary.BigEndian.Uint32(d[0:4]) ^ uint32(position)
	num += binary.BigEndian.Uint32(d[4:8])

	length := minReducedLength + int(num%reducedLengthSpan)
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = Alphabet[num%uint32(len(Alphabet))]
		num /= uint32(len(Alphabet))
	}
	return string(buf)
}
