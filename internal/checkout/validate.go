package checkout

import (
	"crypto/rand"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

var phoneRe = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)

// ValidPhone accepts the "(DD) DDDDD-DDDD" mobile format only.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// NormalizePostalCode strips punctuation and reports whether exactly 8 digits remain.
func NormalizePostalCode(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
		default:
			return "", false
		}
	}
	out := b.String()
	return out, len(out) == 8
}

func ValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

func ValidState(s string) bool {
	return len(s) == 2 && s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
}

func MessageLen(s string) int {
	return utf8.RuneCountInString(s)
}

// GenerateOrderNumber returns a display code such as "FL-482913".
func GenerateOrderNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return "FL-" + big.NewInt(0).Add(n, big.NewInt(100000)).String(), nil
}
