package context

import (
	"context"
	"net/http"

	appErrors "github.com/amezhanin/affilibot/internal/app/errors"
)

type key string

const adminLoginKey key = "adminLogin"

func WithAdminLogin(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, adminLoginKey, login)
}

func AdminLogin(ctx context.Context) string {
	val := ctx.Value(adminLoginKey)
	login, ok := val.(string)
	if !ok {
		return ""
	}
	return login
}

func GetContextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		var errMsg string
		var errCode int

		switch err {
		case context.Canceled:
			errMsg, errCode = "Request canceled", http.StatusInternalServerError
		case context.DeadlineExceeded:
			errMsg, errCode = "Timeout exceeded", http.StatusInternalServerError
		default:
			errMsg, errCode = "Context error", http.StatusInternalServerError
		}
		return appErrors.NewWithCode(err, errMsg, errCode)
	}
	return nil
}
