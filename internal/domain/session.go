package domain

// Persisted token keys. Both tiers of the token store use these names.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

type SessionState string

const (
	SessionInitializing    SessionState = "initializing"
	SessionAuthenticated   SessionState = "authenticated"
	SessionUnauthenticated SessionState = "unauthenticated"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// SessionSnapshot is a copy of the session state safe to hand to readers.
type SessionSnapshot struct {
	State   SessionState
	User    *User
	Loading bool
}

func (s SessionSnapshot) IsAuthenticated() bool {
	return s.State == SessionAuthenticated && s.User != nil
}
