package model

import (
	"encoding/json"
	"strings"
)

// DefaultIdentity is shown when no display name is stored.
const DefaultIdentity = "User"

// Acknowledgment messages returned by the server.
const (
	MsgRegistered       = "Registered successfully"
	MsgRegisterFailed   = "Error registering"
	MsgPostSubmitted    = "Post submitted successfully"
	MsgPostSubmitFailed = "Error submitting post"
)

// PostDraft is the in-progress post held by the compose form.
type PostDraft struct {
	StudentName string
}

// Blank reports whether the draft has nothing but whitespace.
func (d PostDraft) Blank() bool {
	return strings.TrimSpace(d.StudentName) == ""
}

// Clear resets the draft after a successful submission.
func (d *PostDraft) Clear() {
	d.StudentName = ""
}

// PostPayload is the request body of POST /api/posts.
type PostPayload struct {
	StudentName string `json:"studentName"`
}

// SubmissionResult is the server's acknowledgment. Any valid JSON is accepted.
type SubmissionResult = json.RawMessage

// Ack is the body the server sends back for posts and registrations.
type Ack struct {
	Message string `json:"message"`
}

// RegisterPayload is what the client sends on login.
// The server accepts arbitrary JSON, so this shape is a client convention only.
type RegisterPayload struct {
	Name string `json:"name"`
}
