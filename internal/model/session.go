package model

// Identity holds the display fields associated with a session. Every field
// is optional: values may come from the server's verify response, from OAuth
// redirect parameters, or from a best-effort decode of the token payload.
type Identity struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Session pairs a bearer token with the identity it represents. A persisted
// token is necessary but not sufficient for validity; only a successful
// protected API call confirms the server still accepts it.
type Session struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}
