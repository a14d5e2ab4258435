// Package domain holds the records exchanged with the care-team backend.
package domain

import "time"

// WebSimulationUserID is a reserved user id that never has a conversation.
const WebSimulationUserID = "WEB_SIMULATION"

// CareTeamMember is an authenticated staff identity. Token is the bearer
// credential attached to outgoing requests.
type CareTeamMember struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	DisplayName string    `json:"displayName"`
	Speciality  string    `json:"speciality"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Token       string    `json:"token"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Name returns the best label for the member.
func (m CareTeamMember) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	if m.FullName != "" {
		return m.FullName
	}
	return m.Email
}

// User is a chat counterpart. UserName is empty until one is assigned.
type User struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one message in a conversation. Backend order is chronological.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
}

// LastMessage is the newest message of a conversation, used by the inbox.
type LastMessage struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
	Unread    int       `json:"unread"`
}

// SurveyEntry is a read-only survey response correlated to a user.
type SurveyEntry struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Answers   map[string]any `json:"answers,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// LoginRequest is the body of a care-team login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of a care-team signup.
type SignupRequest struct {
	FullName    string `json:"fullName"`
	DisplayName string `json:"displayName,omitempty"`
	Speciality  string `json:"speciality,omitempty"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Password    string `json:"password"`
}

// SendMessageRequest is the body of a reply sent to a user.
type SendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Agent   string `json:"agent"`
}

// DeleteUserRequest identifies the user to delete.
type DeleteUserRequest struct {
	UserID string `json:"userId"`
}

// AssignNameResponse is returned by the assign-name mutation.
type AssignNameResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// SuccessResponse is returned by mutations that only report success.
type SuccessResponse struct {
	Success bool `json:"success"`
}
