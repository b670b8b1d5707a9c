package models

import "time"

// Account is the persisted user record. Its ID doubles as the tenant key.
// An enabled account never carries a verification code or expiry.
type Account struct {
	ID                     string
	Username               string
	Email                  string
	PassHash               string
	Enabled                bool
	VerificationCode       *string
	VerificationCodeExpiry *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// MarkVerified enables the account and drops the one-time code.
func (a *Account) MarkVerified() {
	a.Enabled = true
	a.VerificationCode = nil
	a.VerificationCodeExpiry = nil
}

// Identity is the authenticated principal rebuilt from token claims on every
// request. It is never persisted.
type Identity struct {
	SubjectID string
	Email     string
	Username  string
	Enabled   bool
}

func (i Identity) TenantID() string {
	return i.SubjectID
}

func IdentityOf(a Account) Identity {
	return Identity{
		SubjectID: a.ID,
		Email:     a.Email,
		Username:  a.Username,
		Enabled:   a.Enabled,
	}
}

type Product struct {
	ID          int64             `json:"id"`
	TenantID    string            `json:"-"`
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Category    string            `json:"category"`
	Price       string            `json:"price"`
	Description *string           `json:"description,omitempty"`
	Features    map[string]string `json:"features,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	SKU         *string
	Category    *string
	Price       *string
	Description *string
	Features    map[string]string
}

type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// Message is the payload relayed to mail_sender through the broker.
type Message struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Purpose string `json:"purpose"`
}
