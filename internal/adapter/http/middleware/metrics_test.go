package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/api/v1/loans", "/api/v1/loans"},
		{"/api/v1/loans/", "/api/v1/loans/"},
		{"/api/v1/loans/01J5X2", "/api/v1/loans/:id"},
		{"/api/v1/loans/01J5X2/installments", "/api/v1/loans/:id/installments"},
		{"/api/v1/loans/01J5X2/installments/3/delinquent", "/api/v1/loans/:id/installments/:number/delinquent"},
		{"/api/v1/loans/01J5X2/payoff", "/api/v1/loans/:id/payoff"},
		{"/api/v1/delinquency/sweep", "/api/v1/delinquency/sweep"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
