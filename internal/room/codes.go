package room

import "math/rand"

// codeAlphabet excludes easily-confused characters (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// generateCode returns a random 6-character room code drawn uniformly from
// the restricted alphabet. Uniqueness among live rooms is the caller's job.
func generateCode(rng *rand.Rand) string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
	}
	return string(code)
}
