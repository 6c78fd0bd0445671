package postgres

import (
	"time"

	"github.com/google/uuid"
)

// Row shapes as scanned from the database. JSON columns are kept as raw
// bytes and amounts as text so the mappers own every conversion.

type CompanyModel struct {
	ID             int64
	Identifier     string
	AdminID        int64
	Secret         uuid.UUID
	APIKey         string
	PublishableKey string
	WebhookSecret  string
	SuccessURL     string
	CancelURL      string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type UserModel struct {
	ID         int64
	Identifier uuid.UUID
	Token      *string
	CompanyID  *int64
	CustomerID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CurrencyModel struct {
	ID           int64
	CompanyID    int64
	Code         string
	DisplayCode  string
	Description  string
	Symbol       string
	Unit         string
	Divisibility int
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SessionModel struct {
	ID         int64
	Identifier string
	UserID     int64
	Mode       string
	SuccessURL string
	CancelURL  string
	Completed  bool
	Data       []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PaymentModel struct {
	ID            int64
	Identifier    string
	UserID        int64
	CurrencyID    int64
	Amount        string
	PaymentMethod string
	ReturnURL     string
	Status        string
	Error         string
	Collection    string
	Transactions  []byte
	NextAction    []byte
	Data          []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
