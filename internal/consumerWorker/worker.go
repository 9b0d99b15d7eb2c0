package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"srisai/internal/dto"
	"srisai/internal/model"
)

type Consumer interface {
	Consume(handler func([]byte) error) error
}

type Sender interface {
	SendBookingEmail(b model.Booking) error
}

// Reader turns booking.created messages into admin e-mails.
type Reader struct {
	consumer Consumer
	sender   Sender
	log      *zerolog.Logger
	done     chan struct{}
	cancel   context.CancelFunc
}

func NewReader(consumer Consumer, sender Sender, log *zerolog.Logger) *Reader {
	return &Reader{
		consumer: consumer,
		sender:   sender,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.log.Info().Msg("booking notification reader started")

	go func() {
		defer close(r.done)

		if err := r.consumer.Consume(r.handle); err != nil {
			r.log.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		r.log.Info().Msg("booking notification reader stopped by context")
	}()
}

func (r *Reader) handle(body []byte) error {
	var msg dto.BookingNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		r.log.Error().Err(err).Msgf("failed to unmarshal message: %s", string(body))
		return err
	}

	r.log.Info().
		Str("booking_id", msg.Booking.ID).
		Str("date", msg.Booking.Date).
		Msg("received booking notification")

	if err := r.sender.SendBookingEmail(msg.Booking); err != nil {
		r.log.Warn().Err(err).Str("booking_id", msg.Booking.ID).Msg("failed to send booking e-mail")
	}
	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
