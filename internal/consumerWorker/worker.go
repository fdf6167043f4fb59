package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"github.com/sticonf/registration/internal/dto"
	"github.com/sticonf/registration/internal/mailer"
	"github.com/sticonf/registration/internal/rabbit"
	"github.com/sticonf/registration/internal/repo"
)

// Reader drains the delayed expiry queue: when a payment attempt's widget
// window lapses without a confirmed verification, the attempt is marked
// failed and the registrant is notified. The registration itself stays
// pending and can be paid again with a fresh reference.
type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	mail   mailer.Sender
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository, mail mailer.Sender) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("payment expiry reader started")

	go func() {
		defer close(r.done)

		if err := r.RMQ.Consume(func(body []byte) error {
			return r.handleMessage(cctx, body)
		}); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("payment expiry reader stopped by context")
	}()
}

func (r *Reader) handleMessage(ctx context.Context, body []byte) error {
	var msg dto.PaymentExpiryMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		zlog.Logger.Error().
			Err(err).
			Msgf("failed to unmarshal expiry message: %s", string(body))
		return err
	}

	zlog.Logger.Info().
		Str("reference", msg.Reference).
		Msg("payment attempt expiry due")

	failed, err := r.repo.FailPaymentIfPending(ctx, msg.Reference, nil)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("reference", msg.Reference).
			Msg("failed to expire payment attempt")
		return err
	}

	if !failed {
		zlog.Logger.Info().
			Str("reference", msg.Reference).
			Msg("payment attempt already settled, skipping")
		return nil
	}

	payment, err := r.repo.GetPaymentByReference(ctx, msg.Reference)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("reference", msg.Reference).
			Msg("failed to load expired payment")
		return nil
	}

	profile, err := r.repo.GetProfileByUserID(ctx, payment.UserID)
	if err != nil || profile.Email == "" {
		zlog.Logger.Warn().
			Str("reference", msg.Reference).
			Msg("no contact email for expired payment attempt")
		return nil
	}

	if err := r.mail.SendAttemptExpired(profile.Email, msg.Reference); err != nil {
		zlog.Logger.Warn().
			Err(err).
			Msg("failed to send expiry notification")
	}

	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
