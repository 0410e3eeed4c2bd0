package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reformhealth/platform/pkg/audit"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/gateway/auth"
)

// ekycData stands in for the UIDAI eKYC response. Every verified session
// gets the same mock payload until a real provider is wired up.
type ekycData struct {
	Name   string
	DOB    string
	Gender string
}

func mockEKYC() ekycData {
	return ekycData{
		Name:   "Mock User Name",
		DOB:    "1990-01-01",
		Gender: "M",
	}
}

type OTPChallenge struct {
	SessionID string `json:"session_id"`
	ExpiresIn int    `json:"expires_in"`
	Message   string `json:"message"`
}

type VerifiedSession struct {
	Patient *Patient `json:"patient"`
	Token   string   `json:"token"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

type Service struct {
	repo    *Repository
	otp     *OTPStore
	tokens  *auth.JWTManager
	pepper  []byte
	auditor *audit.Auditor
}

func NewService(repo *Repository, otp *OTPStore, tokens *auth.JWTManager, pepper string, auditor *audit.Auditor) *Service {
	return &Service{
		repo:    repo,
		otp:     otp,
		tokens:  tokens,
		pepper:  []byte(pepper),
		auditor: auditor,
	}
}

// AadhaarToken derives the irreversible storage token for an Aadhaar number.
func (s *Service) AadhaarToken(aadhaar string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(aadhaar))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Service) RequestOTP(ctx context.Context, rawAadhaar, rawMobile string) (*OTPChallenge, error) {
	aadhaar, err := NormalizeAadhaar(rawAadhaar)
	if err != nil {
		return nil, err
	}
	mobile, err := NormalizeMobile(rawMobile)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.otp.CreateSession(ctx, aadhaar, mobile)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"mobile":         mobile,
		"aadhaar_suffix": aadhaar[len(aadhaar)-4:],
	}).Info("OTP session created")

	return &OTPChallenge{
		SessionID: sessionID,
		ExpiresIn: int(s.otp.TTL().Seconds()),
		Message:   "OTP sent successfully",
	}, nil
}

// VerifyOTP burns the session, upserts the patient from the mock eKYC
// payload, and issues a session token.
func (s *Service) VerifyOTP(ctx context.Context, sessionID, otp, email string) (*VerifiedSession, error) {
	session, err := s.otp.Consume(ctx, sessionID, otp)
	if err != nil {
		return nil, err
	}

	patient, linked, err := s.upsertFromSession(ctx, session, email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.Update(ctx, patient.ID, map[string]interface{}{
		"last_login_at": now,
	}); err != nil {
		logger.Log.WithError(err).Warn("Failed to stamp last login")
	}
	patient.LastLoginAt = &now

	token, err := s.tokens.IssueToken(patient.ID, patient.Mobile, patient.Verified)
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}

	if linked {
		_ = s.auditor.Record(ctx, audit.Log{
			UserID:      patient.ID,
			Action:      audit.ActionAadhaarAuth,
			EntityType:  "patient",
			EntityID:    patient.ID,
			Description: fmt.Sprintf("Aadhaar ending %s linked", session.Aadhaar[len(session.Aadhaar)-4:]),
		})
	}
	_ = s.auditor.Record(ctx, audit.Log{
		UserID:      patient.ID,
		Action:      audit.ActionLogin,
		EntityType:  "patient",
		EntityID:    patient.ID,
		Description: "Logged in via Aadhaar OTP",
	})

	return &VerifiedSession{Patient: patient, Token: token}, nil
}

// upsertFromSession resolves the session to a patient: match on Aadhaar
// token first, then on mobile (linking Aadhaar to an existing account),
// otherwise register a new patient. The second return reports whether the
// Aadhaar link is new.
func (s *Service) upsertFromSession(ctx context.Context, session *Session, email string) (*Patient, bool, error) {
	token := s.AadhaarToken(session.Aadhaar)
	ekyc := mockEKYC()
	firstName, lastName := splitName(ekyc.Name)
	dob := parseDOB(ekyc.DOB)
	now := time.Now().UTC()

	patient, err := s.repo.GetByAadhaarToken(ctx, token)
	if err == nil {
		fields := map[string]interface{}{
			"mobile":            session.Mobile,
			"first_name":        firstName,
			"last_name":         lastName,
			"gender":            ekyc.Gender,
			"aadhaar_linked":    true,
			"aadhaar_linked_at": now,
			"verified":          true,
		}
		if email != "" {
			fields["email"] = email
		}
		if dob != nil {
			fields["date_of_birth"] = *dob
		}
		if err := s.repo.Update(ctx, patient.ID, fields); err != nil {
			return nil, false, err
		}
		refreshed, err := s.repo.Get(ctx, patient.ID)
		return refreshed, false, err
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, false, err
	}

	patient, err = s.repo.GetByMobile(ctx, session.Mobile)
	if err == nil {
		fields := map[string]interface{}{
			"aadhaar_token":     token,
			"aadhaar_linked":    true,
			"aadhaar_linked_at": now,
			"verified":          true,
		}
		if err := s.repo.Update(ctx, patient.ID, fields); err != nil {
			return nil, false, err
		}
		refreshed, err := s.repo.Get(ctx, patient.ID)
		return refreshed, true, err
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, false, err
	}

	created := &Patient{
		ID:              uuid.New().String(),
		Mobile:          session.Mobile,
		Email:           email,
		FirstName:       firstName,
		LastName:        lastName,
		DateOfBirth:     dob,
		Gender:          ekyc.Gender,
		AadhaarToken:    token,
		AadhaarLinked:   true,
		AadhaarLinkedAt: &now,
		Verified:        true,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		return nil, false, fmt.Errorf("registering patient: %w", err)
	}
	return created, true, nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*Patient, error) {
	fields := map[string]interface{}{}
	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, err
		}
		_ = s.auditor.Record(ctx, audit.Log{
			UserID:     id,
			Action:     audit.ActionProfileUpdate,
			EntityType: "patient",
			EntityID:   id,
		})
	}
	return s.repo.Get(ctx, id)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func parseDOB(raw string) *time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
