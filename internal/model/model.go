package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Payment and registration statuses share one vocabulary.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Registrant taxonomy driving the pricing table.
const (
	TypeIndividual   = "individual"
	TypeOrganization = "organization"
	TypeGovernment   = "government"

	SectorEducation          = "education"
	SectorProfessionalBodies = "professional-bodies"
	SectorProductCompany     = "product-company"

	GovLevelState   = "state"
	GovLevelFederal = "federal"
)

const (
	TicketTypeConference = "Conference Access"
	TicketStatusActive   = "active"
	TicketStatusUsed     = "used"

	PaymentMethodPaystack = "paystack"
	CurrencyNGN           = "NGN"
)

type Registration struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	RegistrationType string          `db:"registration_type" json:"registration_type"`
	Sector           string          `db:"sector,omitempty" json:"sector,omitempty"`
	GovLevel         string          `db:"gov_level,omitempty" json:"gov_level,omitempty"`
	Exhibition       bool            `db:"exhibition" json:"exhibition"`
	Conference       bool            `db:"conference" json:"conference"`
	Participants     int             `db:"participants" json:"participants"`
	TotalAmount      int64           `db:"total_amount" json:"total_amount"`
	PaymentStatus    string          `db:"payment_status" json:"payment_status"`
	RegistrationData json.RawMessage `db:"registration_data,omitempty" json:"registration_data,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

type Payment struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	RegistrationID uuid.UUID       `db:"registration_id" json:"registration_id"`
	Reference      string          `db:"reference" json:"reference"`
	Amount         int64           `db:"amount" json:"amount"`
	Currency       string          `db:"currency" json:"currency"`
	Method         string          `db:"method" json:"method"`
	Status         string          `db:"status" json:"status"`
	PaidAt         *time.Time      `db:"paid_at,omitempty" json:"paid_at,omitempty"`
	ProviderData   json.RawMessage `db:"provider_data,omitempty" json:"provider_data,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

type Ticket struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	RegistrationID uuid.UUID `db:"registration_id" json:"registration_id"`
	TicketNumber   string    `db:"ticket_number" json:"ticket_number"`
	TicketType     string    `db:"ticket_type" json:"ticket_type"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Profile struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	FullName     string    `db:"full_name,omitempty" json:"full_name,omitempty"`
	Email        string    `db:"email,omitempty" json:"email,omitempty"`
	Phone        string    `db:"phone,omitempty" json:"phone,omitempty"`
	Organization string    `db:"organization,omitempty" json:"organization,omitempty"`
	JobTitle     string    `db:"job_title,omitempty" json:"job_title,omitempty"`
	Country      string    `db:"country,omitempty" json:"country,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
