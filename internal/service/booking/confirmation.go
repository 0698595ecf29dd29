package booking

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewConfirmationNumber builds PREFIX-<base36 unix millis>-<5 random base36>,
// upper-cased. The unique index on bookings catches the rare collision.
func NewConfirmationNumber(prefix string, now time.Time) string {
	var suffix [5]byte
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return strings.ToUpper(prefix + "-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + string(suffix[:]))
}
