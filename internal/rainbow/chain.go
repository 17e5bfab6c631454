package rainbow

// Walk visits the first length links of the chain starting at seed. For every
// position fn receives the plaintext and its digest; returning false stops
// the walk.
func Walk(seed string, length int, fn func(position int, text string, digest Digest) bool) {
	text := seed
	for position := 0; position < length; position++ {
		digest := HashString(text)
		if !fn(position, text, digest) {
			return
		}
		text = Reduce(digest, position)
	}
}

// Endpoint computes the final digest of the chain starting at seed.
func Endpoint(seed string, length int) Digest {
	text := seed
	for position := 0; position < length; position++ {
		text = Reduce(HashString(text), position)
	}
	return HashString(text)
}
