package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusComplete Status = "Complete"
)

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleGeneral Role = "General"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      Role               `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subject     string             `bson:"subject" json:"subject"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      Status             `bson:"status" json:"status"`
	Username    string             `bson:"username" json:"username"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserFields is a partial user update. Empty fields are left untouched.
// Password must already be hashed.
type UserFields struct {
	Username string `bson:"username,omitempty"`
	Email    string `bson:"email,omitempty"`
	Password string `bson:"password,omitempty"`
}

func (f UserFields) Empty() bool {
	return f.Username == "" && f.Email == "" && f.Password == ""
}

// TaskFields is a partial task update. Empty fields are left untouched.
type TaskFields struct {
	Subject     string `bson:"subject,omitempty"`
	Description string `bson:"description,omitempty"`
	Status      Status `bson:"status,omitempty"`
}

func (f TaskFields) Empty() bool {
	return f.Subject == "" && f.Description == "" && f.Status == ""
}

type LoginRequest struct {
	Username string
	Password string
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

type UpdateUserRequest struct {
	ID       string
	Username string
	Email    string
	Password string
}

type CreateTaskRequest struct {
	Subject     string
	Description string
	Status      Status
	Username    string
}

type UpdateTaskRequest struct {
	ID          string
	Subject     string
	Description string
	Status      Status
}
