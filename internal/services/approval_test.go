package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/upikart/upikart/internal/approval"
	"github.com/upikart/upikart/internal/models"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

func newApprovalFixture(t *testing.T) *ApprovalService {
	t.Helper()
	store := approval.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	return NewApprovalService(store, testSessionSecret, 10*time.Minute, time.Hour, nil)
}

func TestLoginApproval_ApprovedFlow(t *testing.T) {
	t.Parallel()

	svc := newApprovalFixture(t)
	ctx := context.Background()

	req, err := svc.RequestLogin(ctx, "pixel-7", "203.0.113.9")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	result, err := svc.Check(ctx, req.Token)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if result.Status != models.ApprovalPending {
		t.Fatalf("expected pending before decision, got %s", result.Status)
	}

	if err := svc.Approve(ctx, req.Token, "owner@upikart"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	result, err = svc.Check(ctx, req.Token)
	if err != nil {
		t.Fatalf("check after approval failed: %v", err)
	}
	if result.Status != models.ApprovalApproved {
		t.Fatalf("expected approved, got %s", result.Status)
	}
	if result.SessionToken == "" {
		t.Fatal("expected a session token on approval")
	}

	subject, err := svc.ParseSession(result.SessionToken)
	if err != nil {
		t.Fatalf("minted session did not parse: %v", err)
	}
	if subject != "owner@upikart" {
		t.Fatalf("expected subject owner@upikart, got %q", subject)
	}

	// The decision is consumed; later polls read as expired.
	result, err = svc.Check(ctx, req.Token)
	if err != nil {
		t.Fatalf("check after consumption failed: %v", err)
	}
	if result.Status != models.ApprovalExpired {
		t.Fatalf("expected consumed request to read expired, got %s", result.Status)
	}
}

func TestLoginApproval_Rejected(t *testing.T) {
	t.Parallel()

	svc := newApprovalFixture(t)
	ctx := context.Background()

	req, err := svc.RequestLogin(ctx, "", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := svc.Reject(ctx, req.Token, "owner@upikart"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	result, err := svc.Check(ctx, req.Token)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if result.Status != models.ApprovalRejected {
		t.Fatalf("expected rejected, got %s", result.Status)
	}
	if result.SessionToken != "" {
		t.Fatal("rejected requests must not mint sessions")
	}
}

func TestLoginApproval_ExpiryIsNotRejection(t *testing.T) {
	t.Parallel()

	svc := newApprovalFixture(t)
	ctx := context.Background()

	req, err := svc.RequestLogin(ctx, "", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Age the request past its TTL without a decision.
	svc.now = func() time.Time { return req.ExpiresAt.Add(time.Second) }

	result, err := svc.Check(ctx, req.Token)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if result.Status != models.ApprovalExpired {
		t.Fatalf("an undecided aged-out request must read expired, got %s", result.Status)
	}

	if err := svc.Approve(ctx, req.Token, "owner@upikart"); !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("expected expired request to refuse approval, got %v", err)
	}
}

func TestLoginApproval_DecideTwice(t *testing.T) {
	t.Parallel()

	svc := newApprovalFixture(t)
	ctx := context.Background()

	req, err := svc.RequestLogin(ctx, "", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := svc.Approve(ctx, req.Token, "owner@upikart"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := svc.Reject(ctx, req.Token, "owner@upikart"); !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("expected second decision to fail, got %v", err)
	}
}

func TestLoginApproval_PendingRequestsFiltersExpired(t *testing.T) {
	t.Parallel()

	svc := newApprovalFixture(t)
	ctx := context.Background()

	first, err := svc.RequestLogin(ctx, "laptop", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Second request made later, so only it survives the clock advance.
	svc.now = func() time.Time { return first.ExpiresAt.Add(-time.Minute) }
	second, err := svc.RequestLogin(ctx, "phone", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	svc.now = func() time.Time { return first.ExpiresAt.Add(time.Second) }
	pending := svc.PendingRequests(ctx)
	if len(pending) != 1 || pending[0].Token != second.Token {
		t.Fatalf("expected only the fresh request pending, got %+v", pending)
	}
}

func TestParseSession_RejectsForgedToken(t *testing.T) {
	t.Parallel()

	svc := newApprovalFixture(t)
	other := NewApprovalService(approval.NewMemoryStore(), "ffffffffffffffffffffffffffffffff", 10*time.Minute, time.Hour, nil)

	token, err := other.mintSession("intruder", time.Now())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := svc.ParseSession(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}
