package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// Code digit range. Every value has exactly eight digits.
const (
	CodeMin = 10_000_000
	CodeMax = 99_999_999
)

// codeRE matches exactly eight ASCII digits.
var codeRE = regexp.MustCompile(`^[0-9]{8}$`)

// ValidCode reports whether s has the shape of a chat code.
func ValidCode(s string) bool { return codeRE.MatchString(s) }

// CodeSource draws candidate code digits.
type CodeSource interface {
	Draw() (string, error)
}

// CodeSourceFunc adapts a function to CodeSource.
type CodeSourceFunc func() (string, error)

// Draw calls f.
func (f CodeSourceFunc) Draw() (string, error) { return f() }

var codeSpan = big.NewInt(CodeMax - CodeMin + 1)

// RandomCodes draws uniformly from [CodeMin, CodeMax] using crypto/rand.
type RandomCodes struct{}

// Draw returns a uniformly distributed 8-digit string.
func (RandomCodes) Draw() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()+CodeMin), nil
}
