package httpx

import "context"

type ctxKey string

const (
	CtxKeySubjectID ctxKey = "subject_id"
	CtxKeyEmail     ctxKey = "email"
	CtxKeyRoleClaim ctxKey = "role_claim" // *string, nil when the token has no admin-role claim
)

// SubjectFromContext returns the authenticated caller's subject id, or "".
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(CtxKeySubjectID).(string)
	return s
}

// EmailFromContext returns the authenticated caller's email, or "".
func EmailFromContext(ctx context.Context) string {
	e, _ := ctx.Value(CtxKeyEmail).(string)
	return e
}

// RoleClaimFromContext returns the admin-role claim carried by the
// caller's session token; nil when absent.
func RoleClaimFromContext(ctx context.Context) *string {
	r, _ := ctx.Value(CtxKeyRoleClaim).(*string)
	return r
}
