package models

import "testing"

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("kim", "kim@example.com", "secret123")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Password == "secret123" {
		t.Fatal("password stored in plaintext")
	}
	if !u.CheckPassword("secret123") {
		t.Fatal("stored hash does not verify the original password")
	}
	if u.CheckPassword("wrong") {
		t.Fatal("wrong password verified")
	}
	if u.Status != STATUS_INACTIVE {
		t.Fatalf("new users must start inactive, got %q", u.Status)
	}
	if u.AccessLevel != 0 {
		t.Fatalf("new users must start at access level 0, got %d", u.AccessLevel)
	}
}

func TestCreateUserValidation(t *testing.T) {
	if _, err := CreateUser("ab", "kim@example.com", "secret123"); err == nil {
		t.Fatal("expected validation error for short username")
	}
	if _, err := CreateUser("kim", "not-an-email", "secret123"); err == nil {
		t.Fatal("expected validation error for invalid email")
	}
	if _, err := CreateUser("kim", "kim@example.com", "short"); err == nil {
		t.Fatal("expected validation error for short password")
	}
}

func TestGenerateActivationToken(t *testing.T) {
	u := &User{}
	if err := u.GenerateActivationToken(); err != nil {
		t.Fatalf("GenerateActivationToken: %v", err)
	}
	if len(u.ActivationToken) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(u.ActivationToken))
	}
	if u.ActivationSentAt == nil {
		t.Fatal("ActivationSentAt not set")
	}
}

func TestIsStaff(t *testing.T) {
	for level, want := range map[int]bool{0: false, 1: false, 2: true, 4: true} {
		u := &User{AccessLevel: level}
		if u.IsStaff() != want {
			t.Errorf("IsStaff with level %d = %v, want %v", level, u.IsStaff(), want)
		}
	}
}
