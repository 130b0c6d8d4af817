package utils

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"
)

// AuthCookieMiddleware resolves the PocketBase auth token from the `pb_auth`
// cookie and attaches the auth record to the request event, so the HTTP
// handlers can check ownership. The live coordinator never sees this — it
// compares opaque connection ids only.
func AuthCookieMiddleware() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id:   "AuthCookieMiddleware",
		Func: authCookie,
	}
}

func authCookie(e *core.RequestEvent) error {
	if e.Auth != nil {
		return e.Next()
	}

	tokenCookie, err := e.Request.Cookie("pb_auth")
	if err != nil {
		return e.Next()
	}

	decodedCookie, err := url.QueryUnescape(tokenCookie.Value)
	if err != nil {
		return e.Next()
	}

	var cookieObject map[string]interface{}
	if err := json.Unmarshal([]byte(decodedCookie), &cookieObject); err != nil {
		return e.Next()
	}

	token, ok := cookieObject["token"].(string)
	if !ok {
		return e.Next()
	}

	record, err := e.App.FindAuthRecordByToken(token, core.TokenTypeAuth)
	if err != nil {
		return e.Next()
	}

	e.Auth = record
	return e.Next()
}

// LoginRedirect moves to the default /auth/login view if no auth token is set
func LoginRedirect() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id:   "LoginRedirect",
		Func: checkLogin,
	}
}

func checkLogin(e *core.RequestEvent) error {
	if e.Auth == nil {
		return e.Redirect(http.StatusSeeOther, "/auth/login")
	}
	return e.Next()
}
