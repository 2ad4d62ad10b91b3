package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueSession_VerifyRoundTrip(t *testing.T) {
	svc := NewService("test-secret", ServiceConfig{})

	tok, err := svc.IssueSession("user-1", true)
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}
	if tok == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := svc.VerifySession(tok)
	if err != nil {
		t.Fatalf("VerifySession() error = %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if !claims.IsAdmin {
		t.Error("expected IsAdmin to be true")
	}
}

func TestVerifySession_WrongSecret_Fails(t *testing.T) {
	issuer := NewService("secret-a", ServiceConfig{})
	verifier := NewService("secret-b", ServiceConfig{})

	tok, err := issuer.IssueSession("user-1", false)
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}

	if _, err := verifier.VerifySession(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifySession() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifySession_Expired_Fails(t *testing.T) {
	// 負のTTLで即座に期限切れのトークンを発行する
	svc := NewService("test-secret", ServiceConfig{SessionTTL: -time.Minute})

	tok, err := svc.IssueSession("user-1", false)
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}

	if _, err := svc.VerifySession(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifySession() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifySession_Garbage_Fails(t *testing.T) {
	svc := NewService("test-secret", ServiceConfig{})

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.VerifySession(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifySession(%q) error = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestIssueReset_VerifyWithSameHash_Succeeds(t *testing.T) {
	svc := NewService("test-secret", ServiceConfig{})
	hash := "$2a$10$currenthash"

	tok, err := svc.IssueReset("user-1", "a@b.com", hash)
	if err != nil {
		t.Fatalf("IssueReset() error = %v", err)
	}

	claims, err := svc.VerifyReset(tok, hash)
	if err != nil {
		t.Fatalf("VerifyReset() error = %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Email != "a@b.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "a@b.com")
	}
}

// パスワード変更後は署名鍵が変わるため、古いリセットトークンは検証に失敗すること。
// ワンタイム保証の根拠となる性質。
func TestVerifyReset_AfterPasswordChange_Fails(t *testing.T) {
	svc := NewService("test-secret", ServiceConfig{})
	oldHash := "$2a$10$oldhash"
	newHash := "$2a$10$newhash"

	tok, err := svc.IssueReset("user-1", "a@b.com", oldHash)
	if err != nil {
		t.Fatalf("IssueReset() error = %v", err)
	}

	// 変更前の検証は成功する
	if _, err := svc.VerifyReset(tok, oldHash); err != nil {
		t.Fatalf("VerifyReset() with old hash error = %v", err)
	}

	// 変更後の検証は失敗する
	if _, err := svc.VerifyReset(tok, newHash); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("VerifyReset() with new hash error = %v, want ErrInvalidResetToken", err)
	}
}

func TestVerifyReset_Expired_Fails(t *testing.T) {
	svc := NewService("test-secret", ServiceConfig{ResetTTL: -time.Minute})
	hash := "$2a$10$currenthash"

	tok, err := svc.IssueReset("user-1", "a@b.com", hash)
	if err != nil {
		t.Fatalf("IssueReset() error = %v", err)
	}

	if _, err := svc.VerifyReset(tok, hash); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("VerifyReset() error = %v, want ErrInvalidResetToken", err)
	}
}

// セッショントークンをリセット検証に、リセットトークンをセッション検証に流用できないこと
func TestTokenKinds_AreNotInterchangeable(t *testing.T) {
	svc := NewService("test-secret", ServiceConfig{})

	sessionTok, err := svc.IssueSession("user-1", false)
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}

	// セッショントークンはリセット鍵（secret+hash）では検証できない
	if _, err := svc.VerifyReset(sessionTok, "$2a$10$hash"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("VerifyReset(session token) error = %v, want ErrInvalidResetToken", err)
	}
}
