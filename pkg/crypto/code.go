package crypto

import (
	"crypto/rand"
	"errors"
	"math"
	"unicode/utf8"
)

const (
	defaultAlphabet string = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	// codeAlphabet is used for emailed verification codes: mixed-case
	// alphanumeric, no separators that could be mistaken for punctuation.
	codeAlphabet string = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	defaultIDSize   int = 22 // 22 * 6 = 132 bits (uuid is 128 bits) of entropy
	defaultCodeSize int = 6

	maxAlphabetSize int = 255
	minAlphabetSize int = 8
)

var (
	ErrTooManyInputAlphabet = errors.New("must only provide 1 set of alphabet")
	ErrAlphabetTooLong      = errors.New("alphabet must contain no more than 255 characters")
	ErrAlphabetTooShort     = errors.New("alphabet must contain at least 8 characters")
	ErrAlphabetInvalidUTF8  = errors.New("alphabet must contain valid UTF-8")
	ErrAlphabetNotASCII     = errors.New("alphabet must contain only ASCII characters")
)

// CodeGenerator produces uniformly random strings over an ASCII alphabet via
// rejection sampling, suitable for record IDs and one-time codes alike.
type CodeGenerator struct {
	alphabet string
	mask     int
}

func getMask(alphabetLen int) int {
	for i := 1; i <= 8; i++ {
		mask := (2 << uint(i)) - 1
		if mask > alphabetLen-1 {
			return mask
		}
	}
	return maxAlphabetSize // Max mask for 8 bits
}

// NewCodeGenerator creates a generator over the given alphabet, defaulting to
// the URL-safe 64-character set used for IDs.
func NewCodeGenerator(a ...string) (*CodeGenerator, error) {
	if len(a) > 1 {
		return nil, ErrTooManyInputAlphabet
	}

	alphabet := defaultAlphabet
	if !(len(a) == 0 || a[0] == "") {
		alphabet = a[0]
	}

	if !utf8.ValidString(alphabet) {
		return nil, ErrAlphabetInvalidUTF8
	}

	// Verify all characters are ASCII (single-byte UTF-8)
	// This is required because Generate() indexes by byte position
	for _, r := range alphabet {
		if r > 127 {
			return nil, ErrAlphabetNotASCII
		}
	}

	if len(alphabet) > maxAlphabetSize {
		return nil, ErrAlphabetTooLong
	}
	if len(alphabet) < minAlphabetSize {
		return nil, ErrAlphabetTooShort
	}

	return &CodeGenerator{
		alphabet: alphabet,
		mask:     getMask(len(alphabet)),
	}, nil
}

// NewVerificationCodes returns a generator for the 6-character alphanumeric
// codes delivered by email.
func NewVerificationCodes() *CodeGenerator {
	gen, _ := NewCodeGenerator(codeAlphabet)
	return gen
}

// GenerateID returns a fresh 22-character identifier.
func (g *CodeGenerator) GenerateID() (string, error) {
	return g.Generate(defaultIDSize)
}

// GenerateCode returns a fresh 6-character one-time code.
func (g *CodeGenerator) GenerateCode() (string, error) {
	return g.Generate(defaultCodeSize)
}

// Generate returns a random string of the given length over the generator's
// alphabet.
func (g *CodeGenerator) Generate(length int) (string, error) {
	size := defaultIDSize
	if length > 0 {
		size = length
	}

	alphabetLen := len(g.alphabet)
	step := int(math.Ceil(1.6 * float64(g.mask*size) / float64(alphabetLen)))

	id := make([]byte, size)
	buffer := make([]byte, step)

	for position := 0; position < size; {
		// Generate random bytes
		if _, err := rand.Read(buffer); err != nil {
			return "", err
		}

		// Map random bytes to alphabet characters
		for i := 0; i < step && position < size; i++ {
			// Apply mask to get candidate index
			index := buffer[i] & byte(g.mask)

			// Use index if it's valid for our alphabet
			if int(index) < alphabetLen {
				id[position] = g.alphabet[index]
				position++
			}
		}
	}

	return string(id), nil
}
