package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueVerify(t *testing.T) {
	tok, err := Issue("secret", "ops", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	sub, err := Verify("secret", tok)
	if err != nil || sub != "ops" {
		t.Errorf("Verify() = %q, %v", sub, err)
	}

	if _, err := Verify("other", tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong key: err = %v", err)
	}
	if _, err := Verify("secret", "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	tok, err := Issue("secret", "ops", -time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	// ttl <= 0 不设过期时间
	if _, err := Verify("secret", tok); err != nil {
		t.Errorf("token without exp should be valid: %v", err)
	}
}

func TestIssue_MissingKey(t *testing.T) {
	if _, err := Issue("", "ops", time.Hour); err == nil {
		t.Error("missing key should fail")
	}
}

func TestFromHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := FromHeader(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FromHeader(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
