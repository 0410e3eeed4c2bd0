package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "aadhaar_session:"

var (
	aadhaarDigits = regexp.MustCompile(`^[0-9]{12}$`)
	mobileDigits  = regexp.MustCompile(`^[0-9]{10}$`)
	otpDigits     = regexp.MustCompile(`^[0-9]{6}$`)
)

var (
	ErrInvalidAadhaar = errors.New("invalid Aadhaar number format, expected 12 digits")
	ErrInvalidMobile  = errors.New("invalid mobile number format, expected 10 digits")
	ErrInvalidOTP     = errors.New("OTP must be 6 digits")
	ErrSessionExpired = errors.New("session expired or invalid")
)

// NormalizeAadhaar strips separators and checks the 12-digit shape.
func NormalizeAadhaar(raw string) (string, error) {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(raw), "-", ""), " ", "")
	if !aadhaarDigits.MatchString(cleaned) {
		return "", ErrInvalidAadhaar
	}
	return cleaned, nil
}

// FormatAadhaar renders a normalized number as XXXX-XXXX-XXXX for display.
func FormatAadhaar(cleaned string) string {
	if len(cleaned) != 12 {
		return cleaned
	}
	return fmt.Sprintf("%s-%s-%s", cleaned[:4], cleaned[4:8], cleaned[8:])
}

// NormalizeMobile accepts a bare 10-digit number or one carrying the +91
// prefix, and returns the E.164 form.
func NormalizeMobile(raw string) (string, error) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "+91"))
	if !mobileDigits.MatchString(cleaned) {
		return "", ErrInvalidMobile
	}
	return "+91" + cleaned, nil
}

// Session is the state parked in Redis between the request and verify legs
// of the OTP exchange.
type Session struct {
	Aadhaar   string    `json:"aadhaar"`
	Mobile    string    `json:"mobile"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionID derives the opaque handle for one OTP exchange.
func SessionID(aadhaar, mobile string, now time.Time) string {
	sum := sha256.Sum256([]byte(aadhaar + mobile + now.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:32]
}

// OTPStore holds in-flight OTP sessions in Redis. This is the mock UIDAI
// integration: no OTP is actually delivered, and any 6-digit code verifies
// while the session lives.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OTPStore{client: client, ttl: ttl}
}

func (s *OTPStore) TTL() time.Duration {
	return s.ttl
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// CreateSession parks the exchange state and returns its handle.
func (s *OTPStore) CreateSession(ctx context.Context, aadhaar, mobile string) (string, error) {
	now := time.Now().UTC()
	id := SessionID(aadhaar, mobile, now)
	session := Session{
		Aadhaar:   aadhaar,
		Mobile:    mobile,
		CreatedAt: now,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing OTP session: %w", err)
	}
	return id, nil
}

// Consume loads the session, validates the OTP shape, and burns the session.
// A session is single-use whether or not the caller's verification goes on
// to succeed.
func (s *OTPStore) Consume(ctx context.Context, sessionID, otp string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("loading OTP session: %w", err)
	}

	if !otpDigits.MatchString(otp) {
		return nil, ErrInvalidOTP
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decoding OTP session: %w", err)
	}

	_ = s.client.Del(ctx, sessionKey(sessionID)).Err()

	return &session, nil
}
