package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"github.com/sticonf/registration/internal/pricing"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	AuthRequired       = "AUTH_REQUIRED"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	RegistrationNotFound      = "REGISTRATION_NOT_FOUND"
	PaymentNotFound           = "PAYMENT_NOT_FOUND"
	PaymentSystemUnavailable  = "PAYMENT_SYSTEM_UNAVAILABLE"
	PaymentCancelled          = "PAYMENT_CANCELLED"
	PaymentVerificationFailed = "PAYMENT_VERIFICATION_FAILED"
)

type QuoteRequest struct {
	RegistrationType string `json:"registration_type" validate:"required,registrant_type"`
	Sector           string `json:"sector,omitempty" validate:"omitempty,sector"`
	GovLevel         string `json:"gov_level,omitempty" validate:"omitempty,gov_level"`
	Exhibition       bool   `json:"exhibition"`
	Conference       bool   `json:"conference"`
	Participants     int    `json:"participants" validate:"gte=0"`
}

type QuoteResponse struct {
	ExhibitionFee int64  `json:"exhibition_fee"`
	ConferenceFee int64  `json:"conference_fee"`
	Total         int64  `json:"total"`
	Currency      string `json:"currency"`
}

type CreateRegistrationRequest struct {
	RegistrationType string          `json:"registration_type" validate:"required,registrant_type"`
	Sector           string          `json:"sector,omitempty" validate:"omitempty,sector"`
	GovLevel         string          `json:"gov_level,omitempty" validate:"omitempty,gov_level"`
	Exhibition       bool            `json:"exhibition"`
	Conference       bool            `json:"conference"`
	Participants     int             `json:"participants" validate:"gte=0"`
	RegistrationData json.RawMessage `json:"registration_data,omitempty"`
}

type RegistrationResponse struct {
	ID               uuid.UUID     `json:"id"`
	RegistrationType string        `json:"registration_type"`
	Sector           string        `json:"sector,omitempty"`
	GovLevel         string        `json:"gov_level,omitempty"`
	Exhibition       bool          `json:"exhibition"`
	Conference       bool          `json:"conference"`
	Participants     int           `json:"participants"`
	Quote            pricing.Quote `json:"quote"`
	PaymentStatus    string        `json:"payment_status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type InitializePaymentRequest struct {
	RegistrationID uuid.UUID `json:"registration_id" validate:"required"`
}

// InitializePaymentResponse carries exactly the parameter set the hosted
// Paystack widget is opened with. Amount is in kobo.
type InitializePaymentResponse struct {
	Key       string            `json:"key"`
	Email     string            `json:"email"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Reference string            `json:"ref"`
	Metadata  map[string]string `json:"metadata"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required,min=8,max=128"`
}

// VerifyPaymentResponse is the normalized verification outcome. Amount is in
// whole naira; raw provider payloads never leave the server.
type VerifyPaymentResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

type UpsertProfileRequest struct {
	FullName     string `json:"full_name" validate:"required,min=3,max=255"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Organization string `json:"organization,omitempty" validate:"omitempty,max=255"`
	JobTitle     string `json:"job_title,omitempty" validate:"omitempty,max=255"`
	Country      string `json:"country,omitempty" validate:"omitempty,max=128"`
}

type ProfileResponse struct {
	FullName     string `json:"full_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Organization string `json:"organization,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	Country      string `json:"country,omitempty"`
}

type TicketResponse struct {
	ID               uuid.UUID `json:"id"`
	RegistrationID   uuid.UUID `json:"registration_id"`
	TicketNumber     string    `json:"ticket_number"`
	TicketType       string    `json:"ticket_type"`
	Status           string    `json:"status"`
	RegistrationKind string    `json:"registration_kind"`
	AmountPaid       int64     `json:"amount_paid"`
	CreatedAt        time.Time `json:"created_at"`
}

type DashboardResponse struct {
	Profile       *ProfileResponse       `json:"profile,omitempty"`
	Registrations []RegistrationResponse `json:"registrations"`
	Tickets       []TicketResponse       `json:"tickets"`
}

// PaymentExpiryMessage rides the delayed exchange: published when a payment
// attempt is initiated, consumed when the widget window has lapsed.
type PaymentExpiryMessage struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Reference string    `json:"reference"`
	ExpireAt  time.Time `json:"expire_at"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func AuthRequiredError(c *ginext.Context) {
	c.AbortWithStatusJSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: AuthRequired,
			Desc: "Sign in to continue",
		},
	})
}

func RegistrationNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: RegistrationNotFound,
			Desc: "Registration not found",
		},
	})
}

func PaymentNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: PaymentNotFound,
			Desc: "Payment not found",
		},
	})
}

func VerificationFailedError(c *ginext.Context, desc string) {
	c.JSON(402, Response{
		Status: "error",
		Error: &Error{
			Code: PaymentVerificationFailed,
			Desc: desc,
		},
	})
}

func PaymentUnavailableError(c *ginext.Context) {
	c.JSON(503, Response{
		Status: "error",
		Error: &Error{
			Code: PaymentSystemUnavailable,
			Desc: "Payment provider is unreachable. Please try again.",
		},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
