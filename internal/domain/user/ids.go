package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const userIDAttempts = 10

// generateUserID builds "UID" + the last six digits of the unix-ms clock +
// three random digits.
func generateUserID(now time.Time) (string, error) {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("UID%s%03d", millis, n.Int64()), nil
}

// EasyID derives the memorable login id from name, mobile and address.
func EasyID(name, mobile, address string) string {
	return lowerLetters(name, 6) + lastChars(mobile, 3) + lowerLetters(address, 5)
}

func ReferralCode(name, userID string) string {
	return strings.ToUpper(lowerLetters(name, 4) + lastChars(userID, 4))
}

func lowerLetters(value string, limit int) string {
	var builder strings.Builder
	builder.Grow(limit)
	for _, r := range strings.ToLower(value) {
		if builder.Len() >= limit {
			break
		}
		if r >= 'a' && r <= 'z' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func lastChars(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	return string(runes[len(runes)-n:])
}
