package auth

import "context"

// CurrentUser is the authenticated identity attached to a request context
// by the auth middleware: the token subject plus the resolved role set.
type CurrentUser struct {
	ID    string
	Email string
	Roles []string
}

// HasRole applies the standard role check; admin satisfies everything.
func (u *CurrentUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == "admin" {
			return true
		}
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type userCtxKey struct{}

func ContextWithUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

func UserFromContext(ctx context.Context) (*CurrentUser, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*CurrentUser)
	return user, ok
}
