package middlware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	appContext "github.com/amezhanin/affilibot/internal/app/context"
	"github.com/amezhanin/affilibot/internal/app/handlers"
	"github.com/amezhanin/affilibot/internal/app/logger"
	"github.com/amezhanin/affilibot/internal/app/service"
)

type AuthMiddleware struct {
	tokenService service.TokenService
	adminLogin   string
}

func NewAuthMiddleware(tokenService service.TokenService, adminLogin string) AuthMiddleware {
	return AuthMiddleware{
		tokenService: tokenService,
		adminLogin:   adminLogin,
	}
}

func (am *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) != 2 {
			handlers.WriteJSONErrorResponse(w, "Unauthorized: Missing token", http.StatusUnauthorized)
			return
		}

		login, err := am.tokenService.GetAdminLogin(parts[1])
		if err != nil {
			logger.Log.Error("failed to parse admin token", zap.Error(err))
			handlers.WriteJSONErrorResponse(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
		if login != am.adminLogin {
			logger.Log.Warn("admin API access with unknown login", zap.String("login", login))
			handlers.WriteJSONErrorResponse(w, "Unauthorized: Unknown login", http.StatusUnauthorized)
			return
		}

		r = r.WithContext(appContext.WithAdminLogin(r.Context(), login))
		next.ServeHTTP(w, r)
	})
}
