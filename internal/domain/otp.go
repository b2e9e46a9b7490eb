package domain

import "time"

// OTP lifecycle constants.
const (
	OtpLength      = 6
	OtpTTL         = 10 * time.Minute
	OtpMaxAttempts = 5
)

// OtpRecord is the pending login code for an email. PK: email.
// ExpiresAt is in Unix milliseconds. TTL is the same instant in whole seconds,
// rounded up, for DynamoDB expiry.
type OtpRecord struct {
	Email     string `json:"email" dynamodbav:"email"`
	Code      string `json:"-" dynamodbav:"code"`
	Attempts  int    `json:"attempts" dynamodbav:"attempts"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at_ms"`
	TTL       int64  `json:"-" dynamodbav:"expires_at"`
}

// NewOtpRecord returns a fresh record for code that expires at expiresAt.
func NewOtpRecord(email, code string, expiresAt time.Time) *OtpRecord {
	ms := expiresAt.UnixMilli()
	return &OtpRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: ms,
		TTL:       (ms + 999) / 1000,
	}
}

// Expired reports whether the record is past its expiry at now.
func (r *OtpRecord) Expired(now time.Time) bool {
	return now.UnixMilli() > r.ExpiresAt
}

// Locked reports whether the attempt budget is exhausted.
func (r *OtpRecord) Locked() bool {
	return r.Attempts >= OtpMaxAttempts
}

// Remaining is the count of wrong attempts still tolerated after the current one fails.
func (r *OtpRecord) Remaining() int {
	return OtpMaxAttempts - 1 - r.Attempts
}
