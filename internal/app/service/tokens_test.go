package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	appErrors "github.com/amezhanin/affilibot/internal/app/errors"
)

func TestTokenServiceImpl_GetAdminLogin(t *testing.T) {
	validSecretKey := "super-duper-secret"
	differentSecretKey := "different-secret-key"

	issuer := TokenServiceImpl{secretKey: validSecretKey, tokenLifetime: time.Hour}
	validTokenString, err := issuer.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	emptyLoginTokenString, err := issuer.GenerateToken("")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	expiredIssuer := TokenServiceImpl{secretKey: validSecretKey, tokenLifetime: -time.Hour}
	expiredTokenString, err := expiredIssuer.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name        string
		secretKey   string
		tokenString string
		want        string
		wantErr     bool
		expectedErr string
		expectedMsg string
	}{
		{
			name:        "Valid Token",
			secretKey:   validSecretKey,
			tokenString: validTokenString,
			want:        "admin",
		},
		{
			name:        "Invalid Token",
			secretKey:   validSecretKey,
			tokenString: "invalid-token",
			wantErr:     true,
			expectedErr: "token contains an invalid number of segments",
			expectedMsg: "failed to parse token",
		},
		{
			name:        "Empty Admin Login in Token",
			secretKey:   validSecretKey,
			tokenString: emptyLoginTokenString,
			wantErr:     true,
			expectedErr: "token error",
			expectedMsg: "empty login in token",
		},
		{
			name:        "Expired Token",
			secretKey:   validSecretKey,
			tokenString: expiredTokenString,
			wantErr:     true,
			expectedErr: "token is expired",
			expectedMsg: "failed to parse token",
		},
		{
			name:        "Token Signed With Different Key",
			secretKey:   differentSecretKey,
			tokenString: validTokenString,
			wantErr:     true,
			expectedErr: "signature is invalid",
			expectedMsg: "failed to parse token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := TokenServiceImpl{secretKey: tt.secretKey, tokenLifetime: time.Hour}
			got, err := ts.GetAdminLogin(tt.tokenString)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetAdminLogin() error = %v, wantErr %v", err, tt.wantErr)
			} else if tt.wantErr {
				if !strings.Contains(err.Error(), tt.expectedErr) {
					t.Errorf("GetAdminLogin() unexpected error message = %v, want %v", err, tt.expectedErr)
				}
				var codeErr appErrors.ResponseCodeError
				if !errors.As(err, &codeErr) {
					t.Errorf("GetAdminLogin() error %v is not a ResponseCodeError", err)
				} else if codeErr.Msg() != tt.expectedMsg {
					t.Errorf("GetAdminLogin() unexpected response message = %v, want %v", codeErr.Msg(), tt.expectedMsg)
				}
			}
			if got != tt.want {
				t.Errorf("GetAdminLogin() got = %v, want %v", got, tt.want)
			}
		})
	}
}
