package model

// Note is a single text note. Notes are owned exclusively by the remote
// store; the client only holds a transient ordered cache of them.
type Note struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// OTPRequest is the body for both OTP issuance endpoints. Name is only sent
// in the sign-up flow.
type OTPRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// VerifyOTPRequest is the body for the OTP verification endpoint.
type VerifyOTPRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// User mirrors the optional user object the server returns alongside a
// token on sign-in verification.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// VerifyOTPResponse is the successful verification payload.
type VerifyOTPResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// MessageResponse covers endpoints that answer with either a message or an
// error field, sometimes both under a 200 status.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NotesResponse wraps the note collection. The notes field may be null.
type NotesResponse struct {
	Notes []Note `json:"notes"`
}

// NoteResponse wraps a single created note.
type NoteResponse struct {
	Note Note `json:"note"`
}

// CreateNoteRequest is the body for note creation.
type CreateNoteRequest struct {
	Content string `json:"content"`
}
