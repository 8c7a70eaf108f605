package fakeapi

import (
	"context"
	"net/http"

	"github.com/naveenspark/projectdesk/pkg/domain"
)

func withUser(r *http.Request, u domain.User) context.Context {
	return context.WithValue(r.Context(), userKey{}, u)
}

func currentUser(r *http.Request) domain.User {
	u, ok := r.Context().Value(userKey{}).(domain.User)
	if !ok {
		panic(errNoUser)
	}
	return u
}
