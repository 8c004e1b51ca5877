package middleware

import "context"

type contextKey string

const (
	ctxAdminID       contextKey = "admin_id"
	ctxAdminUsername contextKey = "admin_username"
	ctxCustomerEmail contextKey = "customer_email"
)

// AdminIDFromContext returns the authenticated admin's id, if any.
func AdminIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminID).(string); ok {
		return v
	}
	return ""
}

// AdminUsernameFromContext returns the authenticated admin's username, if any.
func AdminUsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminUsername).(string); ok {
		return v
	}
	return ""
}

// CustomerEmailFromContext returns the verified customer email, if any.
func CustomerEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerEmail).(string); ok {
		return v
	}
	return ""
}

// WithCustomerEmail injects the verified email for downstream handlers.
func WithCustomerEmail(ctx context.Context, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerEmail, email)
}
