package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// ReferralCodeLength is the length of generated referral codes.
const ReferralCodeLength = 8

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReferralCode returns a random upper-case alphanumeric code.
func GenerateReferralCode() (string, error) {
	var b strings.Builder
	b.Grow(ReferralCodeLength)
	max := big.NewInt(int64(len(referralAlphabet)))
	for i := 0; i < ReferralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(referralAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips spaces, dashes and parentheses.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// LooksLikeEmail is the login identifier heuristic: emails carry an '@'.
func LooksLikeEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}
