package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sticonf/registration/internal/model"
	"github.com/sticonf/registration/internal/paystack"
	"github.com/sticonf/registration/internal/repo"
)

// fakeRepo is an in-memory Repository with the same idempotency semantics
// as the Postgres implementation: one ticket per registration, terminal
// payment states, provider outcome wins over a locally expired attempt.
type fakeRepo struct {
	mu            sync.Mutex
	registrations map[uuid.UUID]*model.Registration
	payments      map[string]*model.Payment
	tickets       map[uuid.UUID]*model.Ticket
	profiles      map[uuid.UUID]*model.Profile

	failCreatePayment      bool
	failCreateRegistration bool
	ticketNumberCollisions int
	completeCalls          int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		registrations: make(map[uuid.UUID]*model.Registration),
		payments:      make(map[string]*model.Payment),
		tickets:       make(map[uuid.UUID]*model.Ticket),
		profiles:      make(map[uuid.UUID]*model.Profile),
	}
}

func (f *fakeRepo) CreateRegistration(_ context.Context, reg *model.Registration) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateRegistration {
		return uuid.Nil, repo.ErrRegistrationNotFound
	}
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = reg.CreatedAt
	stored := *reg
	f.registrations[reg.ID] = &stored
	return reg.ID, nil
}

func (f *fakeRepo) GetRegistrationByID(_ context.Context, id uuid.UUID) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	out := *reg
	return &out, nil
}

func (f *fakeRepo) GetRegistrationsByUser(_ context.Context, userID uuid.UUID) ([]model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var regs []model.Registration
	for _, reg := range f.registrations {
		if reg.UserID == userID {
			regs = append(regs, *reg)
		}
	}
	return regs, nil
}

func (f *fakeRepo) CreatePayment(_ context.Context, p *model.Payment) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreatePayment {
		return uuid.Nil, repo.ErrPaymentNotFound
	}
	if _, exists := f.payments[p.Reference]; exists {
		return uuid.Nil, repo.ErrDuplicateReference
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	f.payments[p.Reference] = &stored
	return p.ID, nil
}

func (f *fakeRepo) GetPaymentByReference(_ context.Context, reference string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[reference]
	if !ok {
		return nil, repo.ErrPaymentNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeRepo) CompletePaymentTx(_ context.Context, reference string, paidAt time.Time, providerData []byte, nextTicketNumber func() string) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	p, ok := f.payments[reference]
	if !ok {
		return nil, repo.ErrPaymentNotFound
	}

	// A number collision aborts the transaction before anything is
	// written, like the Postgres implementation.
	if f.ticketNumberCollisions > 0 {
		f.ticketNumberCollisions--
		_ = nextTicketNumber()
		return nil, repo.ErrTicketNumberTaken
	}

	if p.Status != model.StatusCompleted {
		p.Status = model.StatusCompleted
		p.PaidAt = &paidAt
		p.ProviderData = providerData
		if reg, ok := f.registrations[p.RegistrationID]; ok {
			reg.PaymentStatus = model.StatusCompleted
		}
	}

	if t, ok := f.tickets[p.RegistrationID]; ok {
		out := *t
		return &out, nil
	}
	t := &model.Ticket{
		ID:             uuid.New(),
		UserID:         p.UserID,
		RegistrationID: p.RegistrationID,
		TicketNumber:   nextTicketNumber(),
		TicketType:     model.TicketTypeConference,
		Status:         model.TicketStatusActive,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.tickets[p.RegistrationID] = t
	out := *t
	return &out, nil
}

func (f *fakeRepo) FailPaymentIfPending(_ context.Context, reference string, providerData []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[reference]
	if !ok || p.Status != model.StatusPending {
		return false, nil
	}
	p.Status = model.StatusFailed
	if len(providerData) > 0 {
		p.ProviderData = providerData
	}
	return true, nil
}

func (f *fakeRepo) GetTicketByRegistrationID(_ context.Context, registrationID uuid.UUID) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[registrationID]
	if !ok {
		return nil, repo.ErrTicketNotFound
	}
	out := *t
	return &out, nil
}

func (f *fakeRepo) GetTicketsByUser(_ context.Context, userID uuid.UUID) ([]repo.TicketRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []repo.TicketRow
	for _, t := range f.tickets {
		if t.UserID != userID {
			continue
		}
		row := repo.TicketRow{Ticket: *t}
		if reg, ok := f.registrations[t.RegistrationID]; ok {
			row.RegistrationType = reg.RegistrationType
			row.AmountPaid = reg.TotalAmount
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *fakeRepo) GetProfileByUserID(_ context.Context, userID uuid.UUID) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repo.ErrProfileNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeRepo) UpsertProfile(_ context.Context, p *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *p
	f.profiles[p.UserID] = &stored
	return nil
}

func (f *fakeRepo) MigrateUp(string) error   { return nil }
func (f *fakeRepo) MigrateDown(string) error { return nil }

func (f *fakeRepo) ticketCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickets)
}

type fakeVerifier struct {
	VerifyFunc func(ctx context.Context, reference string) (*paystack.VerifyResult, error)
	calls      int
}

func (v *fakeVerifier) Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	v.calls++
	if v.VerifyFunc != nil {
		return v.VerifyFunc(ctx, reference)
	}
	return nil, paystack.ErrUnavailable
}

type fakePublisher struct {
	published [][]byte
	delays    []time.Duration
}

func (p *fakePublisher) Publish(message []byte, delay time.Duration) error {
	p.published = append(p.published, message)
	p.delays = append(p.delays, delay)
	return nil
}

type fakeMailer struct {
	received  []string
	confirmed []string
	expired   []string
}

func (m *fakeMailer) SendRegistrationReceived(recipient, _ string, _ int64) error {
	m.received = append(m.received, recipient)
	return nil
}

func (m *fakeMailer) SendPaymentConfirmed(recipient, _ string, _ int64) error {
	m.confirmed = append(m.confirmed, recipient)
	return nil
}

func (m *fakeMailer) SendAttemptExpired(recipient, _ string) error {
	m.expired = append(m.expired, recipient)
	return nil
}
