package session

import (
	"time"

	id "regdesk/pkg/domain"
)

// Operator is a desk account allowed to register and look up subjects.
type Operator struct {
	ID           id.OperatorID
	Username     string
	DisplayName  string
	Role         string
	PasswordHash []byte
}

// Profile is the public view of an operator.
type Profile struct {
	OperatorID  string `json:"operator_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	SessionID   string `json:"session_id,omitempty"`
}

func (o *Operator) Profile() Profile {
	return Profile{
		OperatorID:  o.ID.String(),
		Username:    o.Username,
		DisplayName: o.DisplayName,
		Role:        o.Role,
	}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   string    `json:"session_id"`
	Device      string    `json:"device,omitempty"`
	Operator    Profile   `json:"operator"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
