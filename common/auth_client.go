package common

import "golang.org/x/oauth2"

// TokenSource returns a source that always yields the given bearer token.
// An empty token yields nil, meaning requests go out unauthenticated and are
// subject to the anonymous rate limit.
func TokenSource(accessToken string) oauth2.TokenSource {
	if accessToken == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
}
