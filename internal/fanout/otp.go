package fanout

import (
	"math/rand"
	"strconv"
)

// newVerificationCode returns a 6-digit code drawn uniformly from
// [100000, 999999]. It is a handoff aid for an in-person exchange, not a
// credential, so no cryptographic source is used.
func newVerificationCode() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}
