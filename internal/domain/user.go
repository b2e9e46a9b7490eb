package domain

import "time"

// User is created on the first successful code verification for an email.
type User struct {
	UserID    string    `json:"id" dynamodbav:"user_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Name      *string   `json:"name,omitempty" dynamodbav:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
}
