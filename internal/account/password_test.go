package account

import (
	"errors"
	"strings"
	"testing"
)

var testParams = &Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", testParams)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("unexpected hash format: %s", hash)
	}

	again, err := HashPassword("correct horse", testParams)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == again {
		t.Error("two hashes of the same password are identical; salt not random")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", testParams)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	tests := []struct {
		password string
		want     bool
	}{
		{"correct horse", true},
		{"correct horse ", false},
		{"Correct horse", false},
		{"", false},
	}
	for _, tc := range tests {
		got, err := CheckPassword(tc.password, hash)
		if err != nil {
			t.Fatalf("CheckPassword(%q) error: %v", tc.password, err)
		}
		if got != tc.want {
			t.Errorf("CheckPassword(%q) = %v, want %v", tc.password, got, tc.want)
		}
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"wrong algo":    "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"bad version":   "$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"bad params":    "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"bad salt":      "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
		"missing parts": "$argon2id$v=19$m=1024,t=1,p=1",
	}
	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := CheckPassword("pw", hash); !errors.Is(err, errMalformedHash) {
				t.Errorf("CheckPassword() error = %v, want errMalformedHash", err)
			}
		})
	}
}
