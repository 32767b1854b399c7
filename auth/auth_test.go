package auth

import (
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "Correct-Horse-Battery-9"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password
	match, err = ComparePassword("Wrong-Horse-Battery-9", hash)
	req.NoError(err)
	req.False(match)

	// Garbage hash
	_, err = ComparePassword(password, "$bcrypt$whatever")
	req.Error(err)
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"test@example.com", "tester", "ComplexPass123!"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "tester", "ComplexPass123!"}, true},
		{"Missing nickname", RegisterRequest{"test@example.com", "", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"test@example.com", "tester", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "tester", "NoDigitPass!"}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "tester", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "tester", "nouppercase123!"}, true},
		{"Password too long (edge case)", RegisterRequest{"test@example.com", "tester", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
