package handlers

import (
	"testing"
	"time"

	"github.com/magfest/uber/internal/config"
)

func TestAdminToken(t *testing.T) {
	cfg := config.AuthConfig{SecretKey: "0123456789abcdef0123", SessionMaxAge: time.Hour}
	now := time.Date(2027, time.January, 7, 9, 0, 0, 0, time.UTC)

	token, err := signAdminToken("acct-1", now, cfg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	id, err := parseAdminToken(token, now.Add(30*time.Minute), cfg)
	if err != nil || id != "acct-1" {
		t.Fatalf("parse = %q, %v", id, err)
	}

	if _, err := parseAdminToken(token, now.Add(2*time.Hour), cfg); err == nil {
		t.Error("expired token accepted")
	}
	other := cfg
	other.SecretKey = "another-secret-key-entirely"
	if _, err := parseAdminToken(token, now, other); err == nil {
		t.Error("token signed with another key accepted")
	}
	if _, err := parseAdminToken("not.a.token", now, cfg); err == nil {
		t.Error("garbage accepted")
	}
}
