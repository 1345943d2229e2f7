package services

import (
	"testing"

	"prepboard-backend/internal/models"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name      string
		req       models.RegisterRequest
		wantField string
	}{
		{"valid", models.RegisterRequest{FullName: "Aru S", Email: "aru@example.com", Password: "Pass1234"}, ""},
		{"missing name", models.RegisterRequest{Email: "aru@example.com", Password: "Pass1234"}, "full_name"},
		{"bad email", models.RegisterRequest{FullName: "Aru S", Email: "not-an-email", Password: "Pass1234"}, "email"},
		{"short password", models.RegisterRequest{FullName: "Aru S", Email: "aru@example.com", Password: "Ab1"}, "password"},
		{"password without digit", models.RegisterRequest{FullName: "Aru S", Email: "aru@example.com", Password: "Passwords"}, "password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRegistration(tc.req)

			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("Expected valid request, got %v", err)
				}
				return
			}

			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected ValidationError, got %T", err)
			}
			if _, present := ve.Fields[tc.wantField]; !present {
				t.Errorf("Expected field error for %q, got %v", tc.wantField, ve.Fields)
			}
		})
	}
}
