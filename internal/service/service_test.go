package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sticonf/registration/cmd/middleware"
	"github.com/sticonf/registration/internal/dto"
	"github.com/sticonf/registration/internal/model"
	"github.com/sticonf/registration/internal/paystack"
)

var testLog = zerolog.Nop()

type testEnv struct {
	svc      Service
	repo     *fakeRepo
	verifier *fakeVerifier
	rbt      *fakePublisher
	mail     *fakeMailer
	userID   uuid.UUID
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		repo:     newFakeRepo(),
		verifier: &fakeVerifier{},
		rbt:      &fakePublisher{},
		mail:     &fakeMailer{},
		userID:   uuid.New(),
	}
	env.svc = NewService(env.repo, &testLog, env.rbt, env.verifier, env.mail, Config{
		PublicKey:           "pk_test_abc",
		WidgetWindowMinutes: 30,
	})
	return env
}

func (e *testEnv) request(t *testing.T, handler func(*gin.Context), method, path string, body any, params gin.Params) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	c.Set(middleware.CtxUserID, e.userID)
	c.Set(middleware.CtxEmail, "delegate@example.com")

	handler(c)

	var resp dto.Response
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func decodeData(t *testing.T, resp dto.Response, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("failed to remarshal response data: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("failed to decode response data: %v", err)
	}
}

func (e *testEnv) createRegistration(t *testing.T, req dto.CreateRegistrationRequest) dto.RegistrationResponse {
	t.Helper()
	w, resp := e.request(t, e.svc.CreateRegistration, http.MethodPost, "/v1/registrations", req, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("CreateRegistration status = %d, body %s", w.Code, w.Body.String())
	}
	var reg dto.RegistrationResponse
	decodeData(t, resp, &reg)
	return reg
}

func (e *testEnv) initializePayment(t *testing.T, registrationID uuid.UUID) dto.InitializePaymentResponse {
	t.Helper()
	w, resp := e.request(t, e.svc.InitializePayment, http.MethodPost, "/v1/payments/initialize",
		dto.InitializePaymentRequest{RegistrationID: registrationID}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("InitializePayment status = %d, body %s", w.Code, w.Body.String())
	}
	var init dto.InitializePaymentResponse
	decodeData(t, resp, &init)
	return init
}

func TestQuoteEndpoint(t *testing.T) {
	env := newTestEnv()

	w, resp := env.request(t, env.svc.Quote, http.MethodPost, "/v1/pricing/quote", dto.QuoteRequest{
		RegistrationType: model.TypeOrganization,
		Sector:           model.SectorProfessionalBodies,
		Exhibition:       true,
		Conference:       true,
		Participants:     3,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Quote status = %d, body %s", w.Code, w.Body.String())
	}

	var quote dto.QuoteResponse
	decodeData(t, resp, &quote)
	if quote.Total != 1_400_000 {
		t.Errorf("quote total = %d, want 1400000", quote.Total)
	}
	if quote.Currency != "NGN" {
		t.Errorf("quote currency = %q, want NGN", quote.Currency)
	}
}

func TestQuoteRejectsEducationConference(t *testing.T) {
	env := newTestEnv()

	w, resp := env.request(t, env.svc.Quote, http.MethodPost, "/v1/pricing/quote", dto.QuoteRequest{
		RegistrationType: model.TypeOrganization,
		Sector:           model.SectorEducation,
		Exhibition:       true,
		Conference:       true,
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Quote status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.FieldIncorrect {
		t.Errorf("error = %+v, want code %s", resp.Error, dto.FieldIncorrect)
	}
}

func TestQuoteRejectsUnknownSectorAndLevel(t *testing.T) {
	env := newTestEnv()

	cases := []struct {
		name string
		req  dto.QuoteRequest
	}{
		{"unknown sector", dto.QuoteRequest{
			RegistrationType: model.TypeOrganization,
			Sector:           "agriculture",
			Exhibition:       true,
		}},
		{"unknown government level", dto.QuoteRequest{
			RegistrationType: model.TypeGovernment,
			GovLevel:         "municipal",
			Exhibition:       true,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := env.request(t, env.svc.Quote, http.MethodPost, "/v1/pricing/quote", tc.req, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Quote status = %d, want 400", w.Code)
			}
			if resp.Error == nil || resp.Error.Code != dto.FieldIncorrect {
				t.Errorf("error = %+v, want code %s", resp.Error, dto.FieldIncorrect)
			}
		})
	}
}

func TestQuoteRejectsMalformedBody(t *testing.T) {
	env := newTestEnv()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/pricing/quote", bytes.NewBufferString(`{"registration_type":`))
	c.Request.Header.Set("Content-Type", "application/json")

	env.svc.Quote(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Quote status = %d, want 400", w.Code)
	}
	var resp dto.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	if resp.Error == nil || resp.Error.Code != dto.FieldBadFormat {
		t.Errorf("error = %+v, want code %s", resp.Error, dto.FieldBadFormat)
	}
}

func TestCreateRegistrationFreezesServerTotal(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeGovernment,
		GovLevel:         model.GovLevelState,
		Exhibition:       true,
		Conference:       true,
		Participants:     20,
	})

	if reg.Quote.Total != 5_500_000 {
		t.Errorf("state package total = %d, want 5500000", reg.Quote.Total)
	}
	if reg.PaymentStatus != model.StatusPending {
		t.Errorf("payment status = %q, want pending", reg.PaymentStatus)
	}

	stored, err := env.repo.GetRegistrationByID(context.Background(), reg.ID)
	if err != nil {
		t.Fatalf("stored registration not found: %v", err)
	}
	if stored.TotalAmount != 5_500_000 {
		t.Errorf("stored total = %d, want 5500000", stored.TotalAmount)
	}
	if len(env.mail.received) != 1 {
		t.Errorf("registration emails sent = %d, want 1", len(env.mail.received))
	}
}

func TestInitializePaymentReturnsWidgetParams(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)

	if init.Key != "pk_test_abc" {
		t.Errorf("widget key = %q, want configured public key", init.Key)
	}
	if init.Amount != 200_000*100 {
		t.Errorf("widget amount = %d kobo, want %d", init.Amount, 200_000*100)
	}
	if init.Currency != "NGN" {
		t.Errorf("widget currency = %q, want NGN", init.Currency)
	}
	if init.Metadata["registration_id"] != reg.ID.String() {
		t.Errorf("metadata registration_id = %q, want %s", init.Metadata["registration_id"], reg.ID)
	}
	if len(env.rbt.published) != 1 || env.rbt.delays[0] != 30*time.Minute {
		t.Errorf("expiry publish = %d messages, delays %v; want 1 message delayed by the widget window", len(env.rbt.published), env.rbt.delays)
	}

	stored, err := env.repo.GetPaymentByReference(context.Background(), init.Reference)
	if err != nil {
		t.Fatalf("pending payment row missing: %v", err)
	}
	if stored.Status != model.StatusPending {
		t.Errorf("payment status = %q, want pending", stored.Status)
	}
	if stored.Amount != 200_000 {
		t.Errorf("payment amount = %d naira, want 200000", stored.Amount)
	}
}

func TestVerifyPaymentEndToEnd(t *testing.T) {
	env := newTestEnv()

	// Federal MDA, exhibition plus conference for two: 500k + 250k*2.
	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeGovernment,
		GovLevel:         model.GovLevelFederal,
		Exhibition:       true,
		Conference:       true,
		Participants:     2,
	})
	if reg.Quote.Total != 1_000_000 {
		t.Fatalf("federal total = %d, want 1000000", reg.Quote.Total)
	}
	init := env.initializePayment(t, reg.ID)

	env.verifier.VerifyFunc = func(_ context.Context, reference string) (*paystack.VerifyResult, error) {
		if reference != init.Reference {
			t.Errorf("verifier called with reference %q, want %q", reference, init.Reference)
		}
		return &paystack.VerifyResult{
			Status:   paystack.StatusSuccess,
			Amount:   init.Amount, // kobo, as submitted to the widget
			Currency: "NGN",
			Raw:      json.RawMessage(`{"status":"success"}`),
		}, nil
	}

	w, resp := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify",
		dto.VerifyPaymentRequest{Reference: init.Reference}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("VerifyPayment status = %d, body %s", w.Code, w.Body.String())
	}

	var verified dto.VerifyPaymentResponse
	decodeData(t, resp, &verified)
	if !verified.Success || verified.Status != paystack.StatusSuccess {
		t.Errorf("verify response = %+v, want success", verified)
	}
	// Round-trip: kobo submitted to the widget divided back equals the total.
	if verified.Amount != 1_000_000 {
		t.Errorf("verified amount = %d naira, want 1000000", verified.Amount)
	}

	stored, err := env.repo.GetRegistrationByID(context.Background(), reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PaymentStatus != model.StatusCompleted {
		t.Errorf("registration payment status = %q, want completed", stored.PaymentStatus)
	}
	if n := env.repo.ticketCount(); n != 1 {
		t.Errorf("tickets issued = %d, want exactly 1", n)
	}
	if len(env.mail.confirmed) != 1 {
		t.Errorf("confirmation emails = %d, want 1", len(env.mail.confirmed))
	}
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)

	env.verifier.VerifyFunc = func(context.Context, string) (*paystack.VerifyResult, error) {
		return &paystack.VerifyResult{Status: paystack.StatusSuccess, Amount: init.Amount}, nil
	}

	req := dto.VerifyPaymentRequest{Reference: init.Reference}
	if w, _ := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify", req, nil); w.Code != http.StatusOK {
		t.Fatalf("first verify status = %d", w.Code)
	}
	callsAfterFirst := env.verifier.calls

	w, resp := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify", req, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second verify status = %d, body %s", w.Code, w.Body.String())
	}
	var verified dto.VerifyPaymentResponse
	decodeData(t, resp, &verified)
	if !verified.Success || verified.Amount != 200_000 {
		t.Errorf("second verify response = %+v, want success with amount 200000", verified)
	}

	if n := env.repo.ticketCount(); n != 1 {
		t.Errorf("tickets after double verify = %d, want exactly 1", n)
	}
	if env.verifier.calls != callsAfterFirst {
		t.Errorf("provider called again for a completed reference (%d -> %d calls)", callsAfterFirst, env.verifier.calls)
	}
}

func TestVerifyPaymentRegeneratesTakenTicketNumber(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)

	env.verifier.VerifyFunc = func(context.Context, string) (*paystack.VerifyResult, error) {
		return &paystack.VerifyResult{Status: paystack.StatusSuccess, Amount: init.Amount}, nil
	}
	// First generated number is already held by another registration.
	env.repo.ticketNumberCollisions = 1

	w, resp := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify",
		dto.VerifyPaymentRequest{Reference: init.Reference}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", w.Code, w.Body.String())
	}

	var verified dto.VerifyPaymentResponse
	decodeData(t, resp, &verified)
	if !verified.Success {
		t.Errorf("verify response = %+v, want success after regenerating the number", verified)
	}
	if env.repo.completeCalls != 2 {
		t.Errorf("completion attempts = %d, want 2 (collision then fresh number)", env.repo.completeCalls)
	}
	if n := env.repo.ticketCount(); n != 1 {
		t.Errorf("tickets issued = %d, want exactly 1", n)
	}
}

func TestVerifyPaymentGivesUpAfterRepeatedCollisions(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)

	env.verifier.VerifyFunc = func(context.Context, string) (*paystack.VerifyResult, error) {
		return &paystack.VerifyResult{Status: paystack.StatusSuccess, Amount: init.Amount}, nil
	}
	env.repo.ticketNumberCollisions = ticketIssueAttempts

	w, _ := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify",
		dto.VerifyPaymentRequest{Reference: init.Reference}, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("verify status = %d, want 500 once attempts are exhausted", w.Code)
	}
	if env.repo.completeCalls != ticketIssueAttempts {
		t.Errorf("completion attempts = %d, want %d", env.repo.completeCalls, ticketIssueAttempts)
	}
	if env.repo.ticketCount() != 0 {
		t.Error("ticket issued even though every attempt collided")
	}
}

func TestVerifyPaymentDeclined(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)

	env.verifier.VerifyFunc = func(context.Context, string) (*paystack.VerifyResult, error) {
		return nil, fmt.Errorf("%w: transaction not found", paystack.ErrDeclined)
	}

	w, resp := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify",
		dto.VerifyPaymentRequest{Reference: init.Reference}, nil)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("declined verify status = %d, want 402", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.PaymentVerificationFailed {
		t.Errorf("error = %+v, want code %s", resp.Error, dto.PaymentVerificationFailed)
	}

	payment, err := env.repo.GetPaymentByReference(context.Background(), init.Reference)
	if err != nil {
		t.Fatal(err)
	}
	if payment.Status != model.StatusFailed {
		t.Errorf("payment status = %q, want failed", payment.Status)
	}
	// Registration stays pending so the user can retry with a new reference.
	stored, _ := env.repo.GetRegistrationByID(context.Background(), reg.ID)
	if stored.PaymentStatus != model.StatusPending {
		t.Errorf("registration status = %q, want pending", stored.PaymentStatus)
	}
	if env.repo.ticketCount() != 0 {
		t.Error("ticket issued for a declined payment")
	}
}

func TestVerifyPaymentProviderUnavailable(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)

	env.verifier.VerifyFunc = func(context.Context, string) (*paystack.VerifyResult, error) {
		return nil, fmt.Errorf("%w: connection refused", paystack.ErrUnavailable)
	}

	w, resp := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify",
		dto.VerifyPaymentRequest{Reference: init.Reference}, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unavailable verify status = %d, want 503", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.PaymentSystemUnavailable {
		t.Errorf("error = %+v, want code %s", resp.Error, dto.PaymentSystemUnavailable)
	}

	// Transient outage must not settle the attempt.
	payment, _ := env.repo.GetPaymentByReference(context.Background(), init.Reference)
	if payment.Status != model.StatusPending {
		t.Errorf("payment status = %q, want pending after transient failure", payment.Status)
	}
	_ = reg
}

func TestVerifyPaymentAmountMismatch(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)
	_ = reg

	env.verifier.VerifyFunc = func(context.Context, string) (*paystack.VerifyResult, error) {
		// Provider reports 1 naira short.
		return &paystack.VerifyResult{Status: paystack.StatusSuccess, Amount: init.Amount - 100}, nil
	}

	w, _ := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify",
		dto.VerifyPaymentRequest{Reference: init.Reference}, nil)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("mismatch verify status = %d, want 402", w.Code)
	}
	if env.repo.ticketCount() != 0 {
		t.Error("ticket issued despite amount mismatch")
	}
}

func TestCancelPayment(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)

	w, resp := env.request(t, env.svc.CancelPayment, http.MethodPost,
		"/v1/payments/"+init.Reference+"/cancel", nil,
		gin.Params{{Key: "reference", Value: init.Reference}})
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", w.Code, w.Body.String())
	}

	var out map[string]any
	decodeData(t, resp, &out)
	if out["retryable"] != true {
		t.Errorf("cancel response = %+v, want retryable", out)
	}
	if out["code"] != dto.PaymentCancelled {
		t.Errorf("cancel code = %v, want %s", out["code"], dto.PaymentCancelled)
	}

	payment, _ := env.repo.GetPaymentByReference(context.Background(), init.Reference)
	if payment.Status != model.StatusFailed {
		t.Errorf("payment status after cancel = %q, want failed", payment.Status)
	}

	// A second attempt on the same registration gets a fresh reference.
	second := env.initializePayment(t, reg.ID)
	if second.Reference == init.Reference {
		t.Error("retry reused the cancelled reference")
	}
}

func TestDashboardAggregates(t *testing.T) {
	env := newTestEnv()

	if err := env.repo.UpsertProfile(context.Background(), &model.Profile{
		UserID:   env.userID,
		FullName: "Ada Obi",
		Email:    "ada@example.com",
		Country:  "Nigeria",
	}); err != nil {
		t.Fatal(err)
	}

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeOrganization,
		Sector:           model.SectorProductCompany,
		Exhibition:       true,
	})
	init := env.initializePayment(t, reg.ID)
	env.verifier.VerifyFunc = func(context.Context, string) (*paystack.VerifyResult, error) {
		return &paystack.VerifyResult{Status: paystack.StatusSuccess, Amount: init.Amount}, nil
	}
	if w, _ := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify",
		dto.VerifyPaymentRequest{Reference: init.Reference}, nil); w.Code != http.StatusOK {
		t.Fatalf("verify failed with status %d", w.Code)
	}

	w, resp := env.request(t, env.svc.Dashboard, http.MethodGet, "/v1/dashboard", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body %s", w.Code, w.Body.String())
	}

	var dash dto.DashboardResponse
	decodeData(t, resp, &dash)
	if dash.Profile == nil || dash.Profile.FullName != "Ada Obi" {
		t.Errorf("dashboard profile = %+v, want Ada Obi", dash.Profile)
	}
	if len(dash.Registrations) != 1 {
		t.Fatalf("dashboard registrations = %d, want 1", len(dash.Registrations))
	}
	if dash.Registrations[0].PaymentStatus != model.StatusCompleted {
		t.Errorf("dashboard registration status = %q, want completed", dash.Registrations[0].PaymentStatus)
	}
	if len(dash.Tickets) != 1 {
		t.Fatalf("dashboard tickets = %d, want 1", len(dash.Tickets))
	}
	ticket := dash.Tickets[0]
	if ticket.RegistrationKind != model.TypeOrganization || ticket.AmountPaid != 350_000 {
		t.Errorf("dashboard ticket = %+v, want organization / 350000", ticket)
	}
}

func TestInitializePaymentRejectsPaidRegistration(t *testing.T) {
	env := newTestEnv()

	reg := env.createRegistration(t, dto.CreateRegistrationRequest{
		RegistrationType: model.TypeIndividual,
	})
	init := env.initializePayment(t, reg.ID)
	env.verifier.VerifyFunc = func(context.Context, string) (*paystack.VerifyResult, error) {
		return &paystack.VerifyResult{Status: paystack.StatusSuccess, Amount: init.Amount}, nil
	}
	if w, _ := env.request(t, env.svc.VerifyPayment, http.MethodPost, "/v1/payments/verify",
		dto.VerifyPaymentRequest{Reference: init.Reference}, nil); w.Code != http.StatusOK {
		t.Fatalf("verify failed with status %d", w.Code)
	}

	w, _ := env.request(t, env.svc.InitializePayment, http.MethodPost, "/v1/payments/initialize",
		dto.InitializePaymentRequest{RegistrationID: reg.ID}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("initialize on paid registration status = %d, want 400", w.Code)
	}
}

func TestCreateRegistrationRequiresKnownType(t *testing.T) {
	env := newTestEnv()

	w, resp := env.request(t, env.svc.CreateRegistration, http.MethodPost, "/v1/registrations",
		dto.CreateRegistrationRequest{RegistrationType: "sponsor"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown type status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.FieldIncorrect {
		t.Errorf("error = %+v, want code %s", resp.Error, dto.FieldIncorrect)
	}
}
