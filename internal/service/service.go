package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"github.com/sticonf/registration/cmd/middleware"
	"github.com/sticonf/registration/internal/dto"
	"github.com/sticonf/registration/internal/mailer"
	"github.com/sticonf/registration/internal/model"
	"github.com/sticonf/registration/internal/paystack"
	"github.com/sticonf/registration/internal/pricing"
	"github.com/sticonf/registration/internal/rabbit"
	"github.com/sticonf/registration/internal/repo"
	"github.com/sticonf/registration/internal/ticket"
	"github.com/sticonf/registration/pkg/validator"
)

type Service interface {
	Quote(ctx *ginext.Context)
	CreateRegistration(ctx *ginext.Context)
	GetRegistrations(ctx *ginext.Context)
	GetRegistration(ctx *ginext.Context)
	GetPublicKey(ctx *ginext.Context)
	InitializePayment(ctx *ginext.Context)
	VerifyPayment(ctx *ginext.Context)
	CancelPayment(ctx *ginext.Context)
	Dashboard(ctx *ginext.Context)
	UpsertProfile(ctx *ginext.Context)
}

// Config carries the payment-provider settings the handlers need: the
// client-exposed public key and how long an initiated attempt may stay
// pending before the expiry worker fails it.
type Config struct {
	PublicKey           string
	WidgetWindowMinutes int
}

// ticketIssueAttempts bounds how many fresh ticket numbers verification
// tries when the generated one is already taken.
const ticketIssueAttempts = 3

type service struct {
	repo     repo.Repository
	log      *zerolog.Logger
	rbt      rabbit.Publisher
	verifier paystack.Verifier
	mail     mailer.Sender
	cfg      Config
}

func NewService(repo repo.Repository, logger *zerolog.Logger, rbt rabbit.Publisher, verifier paystack.Verifier, mail mailer.Sender, cfg Config) Service {
	return &service{
		repo:     repo,
		log:      logger,
		rbt:      rbt,
		verifier: verifier,
		mail:     mail,
		cfg:      cfg,
	}
}

func (s *service) Quote(ctx *ginext.Context) {
	var req dto.QuoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	quote, err := pricing.Price(selection(req.RegistrationType, req.Sector, req.GovLevel, req.Exhibition, req.Conference, req.Participants))
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		return
	}

	dto.SuccessResponse(ctx, dto.QuoteResponse{
		ExhibitionFee: quote.ExhibitionFee,
		ConferenceFee: quote.ConferenceFee,
		Total:         quote.Total,
		Currency:      model.CurrencyNGN,
	})
}

func (s *service) CreateRegistration(ctx *ginext.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		dto.AuthRequiredError(ctx)
		return
	}

	var req dto.CreateRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create registration request")
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	// The total is always recomputed server-side from the submitted
	// selections and frozen onto the row; client-supplied totals are
	// never trusted.
	quote, err := pricing.Price(selection(req.RegistrationType, req.Sector, req.GovLevel, req.Exhibition, req.Conference, req.Participants))
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		return
	}

	participants := req.Participants
	if participants < 1 {
		participants = 1
	}

	reg := &model.Registration{
		UserID:           userID,
		RegistrationType: req.RegistrationType,
		Sector:           req.Sector,
		GovLevel:         req.GovLevel,
		Exhibition:       req.Exhibition,
		Conference:       req.Conference,
		Participants:     participants,
		TotalAmount:      quote.Total,
		PaymentStatus:    model.StatusPending,
		RegistrationData: req.RegistrationData,
	}

	id, err := s.repo.CreateRegistration(ctx.Request.Context(), reg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create registration in DB")
		dto.InternalServerError(ctx)
		return
	}
	reg.ID = id

	s.log.Info().
		Str("registration_id", id.String()).
		Int64("total_amount", quote.Total).
		Msg("registration created successfully")

	if email := middleware.Email(ctx); email != "" {
		if err := s.mail.SendRegistrationReceived(email, reg.RegistrationType, quote.Total); err != nil {
			s.log.Warn().Err(err).Msg("failed to send registration notification")
		}
	}

	dto.SuccessCreatedResponse(ctx, registrationResponse(reg, quote))
}

func (s *service) GetRegistrations(ctx *ginext.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		dto.AuthRequiredError(ctx)
		return
	}

	regs, err := s.repo.GetRegistrationsByUser(ctx.Request.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		resp = append(resp, registrationResponse(&regs[i], quoteFor(&regs[i])))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetRegistration(ctx *ginext.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		dto.AuthRequiredError(ctx)
		return
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid registration ID")
		return
	}

	reg, err := s.repo.GetRegistrationByID(ctx.Request.Context(), id)
	if err != nil || reg.UserID != userID {
		dto.RegistrationNotFoundError(ctx)
		return
	}

	dto.SuccessResponse(ctx, registrationResponse(reg, quoteFor(reg)))
}

func (s *service) GetPublicKey(ctx *ginext.Context) {
	dto.SuccessResponse(ctx, dto.PublicKeyResponse{PublicKey: s.cfg.PublicKey})
}

func (s *service) InitializePayment(ctx *ginext.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		dto.AuthRequiredError(ctx)
		return
	}

	var req dto.InitializePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}
	if req.RegistrationID == uuid.Nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "registration_id is required")
		return
	}

	reg, err := s.repo.GetRegistrationByID(ctx.Request.Context(), req.RegistrationID)
	if err != nil || reg.UserID != userID {
		dto.RegistrationNotFoundError(ctx)
		return
	}
	if reg.PaymentStatus == model.StatusCompleted {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Registration is already paid")
		return
	}

	payment := &model.Payment{
		UserID:         userID,
		RegistrationID: reg.ID,
		Reference:      paystack.NewReference(),
		Amount:         reg.TotalAmount,
		Currency:       model.CurrencyNGN,
		Method:         model.PaymentMethodPaystack,
		Status:         model.StatusPending,
	}

	// The pending payment row must exist before the widget ever opens;
	// without it a later provider callback has nothing to reconcile
	// against.
	paymentID, err := s.repo.CreatePayment(ctx.Request.Context(), payment)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create payment attempt")
		dto.InternalServerError(ctx)
		return
	}

	msg := dto.PaymentExpiryMessage{
		PaymentID: paymentID,
		Reference: payment.Reference,
		ExpireAt:  time.Now().Add(time.Duration(s.cfg.WidgetWindowMinutes) * time.Minute),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal expiry message")
		dto.InternalServerError(ctx)
		return
	}
	if err := s.rbt.Publish(payload, time.Duration(s.cfg.WidgetWindowMinutes)*time.Minute); err != nil {
		s.log.Error().Err(err).Msg("failed to publish expiry message to RabbitMQ")
	}

	s.log.Info().
		Str("reference", payment.Reference).
		Str("registration_id", reg.ID.String()).
		Msg("payment attempt initialized")

	dto.SuccessCreatedResponse(ctx, dto.InitializePaymentResponse{
		Key:       s.cfg.PublicKey,
		Email:     middleware.Email(ctx),
		Amount:    paystack.ToKobo(payment.Amount),
		Currency:  payment.Currency,
		Reference: payment.Reference,
		Metadata: map[string]string{
			"registration_id": reg.ID.String(),
			"user_id":         userID.String(),
		},
	})
}

func (s *service) VerifyPayment(ctx *ginext.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		dto.AuthRequiredError(ctx)
		return
	}

	var req dto.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	payment, err := s.repo.GetPaymentByReference(ctx.Request.Context(), req.Reference)
	if err != nil || payment.UserID != userID {
		dto.PaymentNotFoundError(ctx)
		return
	}

	// Re-verification of an already settled reference is expected (network
	// retries, refreshed pages). Answer from stored state; never a second
	// ticket, never an error.
	if payment.Status == model.StatusCompleted {
		dto.SuccessResponse(ctx, dto.VerifyPaymentResponse{
			Success: true,
			Status:  paystack.StatusSuccess,
			Amount:  payment.Amount,
		})
		return
	}

	result, err := s.verifier.Verify(ctx.Request.Context(), req.Reference)
	if err != nil {
		if errors.Is(err, paystack.ErrUnavailable) {
			// Transient: leave the attempt pending so the client can retry.
			s.log.Warn().Err(err).Str("reference", req.Reference).Msg("provider unreachable during verification")
			dto.PaymentUnavailableError(ctx)
			return
		}
		s.log.Info().Err(err).Str("reference", req.Reference).Msg("provider declined verification")
		if _, ferr := s.repo.FailPaymentIfPending(ctx.Request.Context(), req.Reference, nil); ferr != nil {
			s.log.Error().Err(ferr).Msg("failed to record declined payment")
		}
		dto.VerificationFailedError(ctx, "Payment could not be verified")
		return
	}

	if result.Status != paystack.StatusSuccess {
		s.log.Info().
			Str("reference", req.Reference).
			Str("provider_status", result.Status).
			Msg("provider reported non-success")
		if _, ferr := s.repo.FailPaymentIfPending(ctx.Request.Context(), req.Reference, result.Raw); ferr != nil {
			s.log.Error().Err(ferr).Msg("failed to record failed payment")
		}
		dto.VerificationFailedError(ctx, "Payment was not successful")
		return
	}

	if paystack.FromKobo(result.Amount) != payment.Amount {
		s.log.Error().
			Str("reference", req.Reference).
			Int64("expected", payment.Amount).
			Int64("reported", paystack.FromKobo(result.Amount)).
			Msg("provider amount does not match payment record")
		if _, ferr := s.repo.FailPaymentIfPending(ctx.Request.Context(), req.Reference, result.Raw); ferr != nil {
			s.log.Error().Err(ferr).Msg("failed to record mismatched payment")
		}
		dto.VerificationFailedError(ctx, "Paid amount does not match the registration total")
		return
	}

	// The ticket number carries a random suffix, so the completion
	// transaction can abort on a number already issued to another
	// registration. Re-run it with a fresh number a few times before
	// giving up.
	var issued *model.Ticket
	for attempt := 0; attempt < ticketIssueAttempts; attempt++ {
		issued, err = s.repo.CompletePaymentTx(ctx.Request.Context(), req.Reference, time.Now(), result.Raw, ticket.NewNumber)
		if !errors.Is(err, repo.ErrTicketNumberTaken) {
			break
		}
		s.log.Warn().Str("reference", req.Reference).Msg("ticket number already taken, regenerating")
	}
	if err != nil {
		s.log.Error().Err(err).Str("reference", req.Reference).Msg("failed to complete verified payment")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Str("reference", req.Reference).
		Str("ticket_number", issued.TicketNumber).
		Msg("payment verified and ticket issued")

	if email := middleware.Email(ctx); email != "" {
		if err := s.mail.SendPaymentConfirmed(email, issued.TicketNumber, payment.Amount); err != nil {
			s.log.Warn().Err(err).Msg("failed to send payment confirmation")
		}
	}

	dto.SuccessResponse(ctx, dto.VerifyPaymentResponse{
		Success: true,
		Status:  result.Status,
		Amount:  paystack.FromKobo(result.Amount),
	})
}

// CancelPayment records a widget closed without success. Not a failure of
// the flow: the registration stays pending and a new attempt may follow.
func (s *service) CancelPayment(ctx *ginext.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		dto.AuthRequiredError(ctx)
		return
	}

	reference := ctx.Param("reference")
	payment, err := s.repo.GetPaymentByReference(ctx.Request.Context(), reference)
	if err != nil || payment.UserID != userID {
		dto.PaymentNotFoundError(ctx)
		return
	}

	cancelled, err := s.repo.FailPaymentIfPending(ctx.Request.Context(), reference, nil)
	if err != nil {
		s.log.Error().Err(err).Str("reference", reference).Msg("failed to cancel payment attempt")
		dto.InternalServerError(ctx)
		return
	}

	status := model.StatusFailed
	if !cancelled {
		status = payment.Status
	}

	s.log.Info().Str("reference", reference).Bool("cancelled", cancelled).Msg("payment attempt cancel requested")

	dto.SuccessResponse(ctx, map[string]any{
		"code":      dto.PaymentCancelled,
		"reference": reference,
		"status":    status,
		"retryable": true,
	})
}

func (s *service) Dashboard(ctx *ginext.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		dto.AuthRequiredError(ctx)
		return
	}

	resp := dto.DashboardResponse{
		Registrations: []dto.RegistrationResponse{},
		Tickets:       []dto.TicketResponse{},
	}

	profile, err := s.repo.GetProfileByUserID(ctx.Request.Context(), userID)
	if err == nil {
		resp.Profile = &dto.ProfileResponse{
			FullName:     profile.FullName,
			Email:        profile.Email,
			Phone:        profile.Phone,
			Organization: profile.Organization,
			JobTitle:     profile.JobTitle,
			Country:      profile.Country,
		}
	} else if !errors.Is(err, repo.ErrProfileNotFound) {
		s.log.Error().Err(err).Msg("failed to load profile for dashboard")
		dto.InternalServerError(ctx)
		return
	}

	regs, err := s.repo.GetRegistrationsByUser(ctx.Request.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load registrations for dashboard")
		dto.InternalServerError(ctx)
		return
	}
	for i := range regs {
		resp.Registrations = append(resp.Registrations, registrationResponse(&regs[i], quoteFor(&regs[i])))
	}

	tickets, err := s.repo.GetTicketsByUser(ctx.Request.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load tickets for dashboard")
		dto.InternalServerError(ctx)
		return
	}
	for _, tr := range tickets {
		resp.Tickets = append(resp.Tickets, dto.TicketResponse{
			ID:               tr.Ticket.ID,
			RegistrationID:   tr.Ticket.RegistrationID,
			TicketNumber:     tr.Ticket.TicketNumber,
			TicketType:       tr.Ticket.TicketType,
			Status:           tr.Ticket.Status,
			RegistrationKind: tr.RegistrationType,
			AmountPaid:       tr.AmountPaid,
			CreatedAt:        tr.Ticket.CreatedAt,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) UpsertProfile(ctx *ginext.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		dto.AuthRequiredError(ctx)
		return
	}

	var req dto.UpsertProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	p := &model.Profile{
		UserID:       userID,
		FullName:     req.FullName,
		Email:        middleware.Email(ctx),
		Phone:        req.Phone,
		Organization: req.Organization,
		JobTitle:     req.JobTitle,
		Country:      req.Country,
	}

	if err := s.repo.UpsertProfile(ctx.Request.Context(), p); err != nil {
		s.log.Error().Err(err).Msg("failed to upsert profile")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.ProfileResponse{
		FullName:     p.FullName,
		Email:        p.Email,
		Phone:        p.Phone,
		Organization: p.Organization,
		JobTitle:     p.JobTitle,
		Country:      p.Country,
	})
}

func selection(regType, sector, govLevel string, exhibition, conference bool, participants int) pricing.Selection {
	return pricing.Selection{
		RegistrationType: regType,
		Sector:           sector,
		GovLevel:         govLevel,
		Exhibition:       exhibition,
		Conference:       conference,
		Participants:     participants,
	}
}

func registrationResponse(reg *model.Registration, quote pricing.Quote) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:               reg.ID,
		RegistrationType: reg.RegistrationType,
		Sector:           reg.Sector,
		GovLevel:         reg.GovLevel,
		Exhibition:       reg.Exhibition,
		Conference:       reg.Conference,
		Participants:     reg.Participants,
		Quote:            quote,
		PaymentStatus:    reg.PaymentStatus,
		CreatedAt:        reg.CreatedAt,
		UpdatedAt:        reg.UpdatedAt,
	}
}

// quoteFor rebuilds the itemized breakdown for display. The stored total is
// authoritative; if the live rules have drifted since creation the frozen
// total is shown un-itemized.
func quoteFor(reg *model.Registration) pricing.Quote {
	q, err := pricing.Price(pricing.Selection{
		RegistrationType: reg.RegistrationType,
		Sector:           reg.Sector,
		GovLevel:         reg.GovLevel,
		Exhibition:       reg.Exhibition,
		Conference:       reg.Conference,
		Participants:     reg.Participants,
	})
	if err != nil || q.Total != reg.TotalAmount {
		return pricing.Quote{Total: reg.TotalAmount}
	}
	return q
}
