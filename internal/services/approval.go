package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/approval"
	"github.com/upikart/upikart/internal/logging"
	"github.com/upikart/upikart/internal/models"
)

const sessionIssuer = "upikart"

// ApprovalService implements the two-step admin login: a device requests a
// login and polls its token while an already-authenticated admin approves or
// rejects it out of band. Approval mints a session JWT; a request that ages
// past its TTL without a decision reads as expired, never as rejected.
type ApprovalService struct {
	store      approval.Store
	secret     []byte
	loginTTL   time.Duration
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewApprovalService(store approval.Store, sessionSecret string, loginTTL, sessionTTL time.Duration, logger *slog.Logger) *ApprovalService {
	return &ApprovalService{
		store:      store,
		secret:     []byte(sessionSecret),
		loginTTL:   loginTTL,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ApprovalService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// RequestLogin registers a pending login request and returns it with the
// polling token.
func (s *ApprovalService) RequestLogin(ctx context.Context, deviceLabel, remoteIP string) (*models.LoginRequest, error) {
	now := s.now()
	req := &models.LoginRequest{
		Token:       uuid.NewString(),
		DeviceLabel: strings.TrimSpace(deviceLabel),
		RemoteIP:    remoteIP,
		Status:      models.ApprovalPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(s.loginTTL),
	}
	s.store.Set(ctx, req, s.loginTTL)

	s.loggerFromContext(ctx).Info("login approval requested",
		"token", req.Token, "device", req.DeviceLabel, "remote_ip", remoteIP)
	return req, nil
}

// CheckResult is one poll of a login request. SessionToken is set only when
// the status is approved.
type CheckResult struct {
	Status       models.ApprovalStatus `json:"status"`
	SessionToken string                `json:"session_token,omitempty"`
	ExpiresAt    time.Time             `json:"expires_at,omitzero"`
}

// Check reports the state of a login request. Unknown and aged-out tokens
// both read as expired; a decided request is consumed by the poll that
// observes the decision.
func (s *ApprovalService) Check(ctx context.Context, token string) (*CheckResult, error) {
	req, ok := s.store.Get(ctx, token)
	if !ok {
		return &CheckResult{Status: models.ApprovalExpired}, nil
	}

	now := s.now()
	if req.Expired(now) {
		s.store.Delete(ctx, token)
		return &CheckResult{Status: models.ApprovalExpired}, nil
	}

	switch req.Status {
	case models.ApprovalPending:
		return &CheckResult{Status: models.ApprovalPending, ExpiresAt: req.ExpiresAt}, nil
	case models.ApprovalApproved:
		session, err := s.mintSession(req.DecidedBy, now)
		if err != nil {
			return nil, err
		}
		s.store.Delete(ctx, token)
		return &CheckResult{
			Status:       models.ApprovalApproved,
			SessionToken: session,
			ExpiresAt:    now.Add(s.sessionTTL),
		}, nil
	case models.ApprovalRejected:
		s.store.Delete(ctx, token)
		return &CheckResult{Status: models.ApprovalRejected}, nil
	default:
		return nil, fmt.Errorf("login request %s has unexpected status %s", token, req.Status)
	}
}

// Approve marks a pending login request approved. Expired requests cannot be
// approved.
func (s *ApprovalService) Approve(ctx context.Context, token, adminID string) error {
	return s.decide(ctx, token, adminID, models.ApprovalApproved)
}

// Reject marks a pending login request rejected.
func (s *ApprovalService) Reject(ctx context.Context, token, adminID string) error {
	return s.decide(ctx, token, adminID, models.ApprovalRejected)
}

func (s *ApprovalService) decide(ctx context.Context, token, adminID string, decision models.ApprovalStatus) error {
	req, ok := s.store.Get(ctx, token)
	if !ok {
		return fmt.Errorf("%w: login request %s", models.ErrNotFound, token)
	}

	now := s.now()
	if req.Expired(now) {
		s.store.Delete(ctx, token)
		return fmt.Errorf("%w: login request has expired", models.ErrInvalidStateTransition)
	}
	if req.Status != models.ApprovalPending {
		return fmt.Errorf("%w: login request is already %s", models.ErrInvalidStateTransition, req.Status)
	}

	req.Status = decision
	req.DecidedBy = adminID
	req.DecidedAt = now
	s.store.Set(ctx, req, time.Until(req.ExpiresAt))

	s.loggerFromContext(ctx).Info("login request decided",
		"token", token, "decision", decision, "admin", adminID)
	return nil
}

// PendingRequests lists undecided, unexpired login requests for the admin
// approval screen.
func (s *ApprovalService) PendingRequests(ctx context.Context) []*models.LoginRequest {
	now := s.now()
	var pending []*models.LoginRequest
	for _, req := range s.store.Pending(ctx) {
		if req.Status == models.ApprovalPending && !req.Expired(now) {
			pending = append(pending, req)
		}
	}
	return pending
}

func (s *ApprovalService) mintSession(adminID string, now time.Time) (string, error) {
	if adminID == "" {
		adminID = "admin"
	}
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   adminID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// ParseSession validates a session JWT and returns the admin subject.
func (s *ApprovalService) ParseSession(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.Subject, nil
}
