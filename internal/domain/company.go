package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AdminGroup is the ledger group a caller must belong to for admin operations.
const AdminGroup = "admin"

// Company is a tenant of the bridge. It holds the processor credentials used
// for every call made on the tenant's behalf.
type Company struct {
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

func NewCompany(identifier string, adminID int64) (*Company, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, errors.New("company identifier is required")
	}
	if adminID == 0 {
		return nil, errors.New("company admin is required")
	}

	now := time.Now()
	return &Company{
		Identifier: identifier,
		AdminID:    adminID,
		Secret:     uuid.New(),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Configured reports whether the company can take payments.
func (c *Company) Configured() bool {
	return c.Active &&
		c.APIKey != "" &&
		c.WebhookSecret != "" &&
		c.PublishableKey != ""
}

// Activate marks the company active under the given admin.
func (c *Company) Activate(adminID int64) {
	c.AdminID = adminID
	c.Active = true
	c.UpdatedAt = time.Now()
}

func (c *Company) Deactivate() {
	c.Active = false
	c.UpdatedAt = time.Now()
}

// User is an end user or admin known to the ledger.
type User struct {
	ID         int64
	Identifier uuid.UUID
	// Token is the ledger credential stored for company admins.
	Token      *string
	CompanyID  *int64
	CustomerID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewUser(identifier uuid.UUID, companyID *int64) (*User, error) {
	if identifier == uuid.Nil {
		return nil, errors.New("user identifier is required")
	}

	now := time.Now()
	return &User{
		Identifier: identifier,
		CompanyID:  companyID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Configured reports whether the user is bound to a processor customer.
func (u *User) Configured() bool {
	return u.CustomerID != nil && *u.CustomerID != ""
}

func (u *User) SetToken(token string) {
	u.Token = &token
	u.UpdatedAt = time.Now()
}

func (u *User) ClearToken() {
	u.Token = nil
	u.UpdatedAt = time.Now()
}

func (u *User) BindCustomer(customerID string) {
	u.CustomerID = &customerID
	u.UpdatedAt = time.Now()
}

// Currency is a ledger currency mirrored for one company.
type Currency struct {
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

func NewCurrency(companyID int64, code string, divisibility int) (*Currency, error) {
	if code == "" {
		return nil, errors.New("currency code is required")
	}
	if err := validateDivisibility(divisibility); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Currency{
		CompanyID:    companyID,
		Code:         code,
		Divisibility: divisibility,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
