package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "secret123" {
		t.Error("Hash() returned the plain password")
	}

	if !hasher.Verify("secret123", hash) {
		t.Error("Verify() = false for the right password")
	}
	if hasher.Verify("wrong-password", hash) {
		t.Error("Verify() = true for a wrong password")
	}
}

func TestNewPasswordHasher_CostFallback(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "zero", cost: 0, want: bcrypt.DefaultCost},
		{name: "too high", cost: bcrypt.MaxCost + 1, want: bcrypt.DefaultCost},
		{name: "min", cost: bcrypt.MinCost, want: bcrypt.MinCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPasswordHasher(tt.cost).cost; got != tt.want {
				t.Errorf("cost = %d, want %d", got, tt.want)
			}
		})
	}
}
