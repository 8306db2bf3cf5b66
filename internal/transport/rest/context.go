package rest

import "context"

type ctxKeyMemberID struct{}
type ctxKeyRole struct{}
type ctxKeyTokenVer struct{}

type AuthContext struct {
	MemberID int64
	Role     string
	Ver      int64
}

func withAuth(ctx context.Context, a AuthContext) context.Context {
	ctx = context.WithValue(ctx, ctxKeyMemberID{}, a.MemberID)
	ctx = context.WithValue(ctx, ctxKeyRole{}, a.Role)
	ctx = context.WithValue(ctx, ctxKeyTokenVer{}, a.Ver)
	return ctx
}

func GetAuth(ctx context.Context) (AuthContext, bool) {
	uid, ok := ctx.Value(ctxKeyMemberID{}).(int64)
	if !ok {
		return AuthContext{}, false
	}
	role, _ := ctx.Value(ctxKeyRole{}).(string)
	ver, _ := ctx.Value(ctxKeyTokenVer{}).(int64)

	return AuthContext{MemberID: uid, Role: role, Ver: ver}, true
}
