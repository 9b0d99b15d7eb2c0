package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"srisai/internal/metrics"
	"srisai/internal/model"
	"srisai/internal/repo"
	"srisai/pkg/validator"
)

const (
	// MessageTTL is how long the UI keeps an intake message on screen.
	MessageTTL = 6 * time.Second

	MsgRequiredFields  = "Please fill required fields (name, phone, date, guests)."
	MsgInvalidDate     = "Please enter the event date as YYYY-MM-DD."
	MsgSubmitted       = "Booking submitted! We will contact you soon."
	MsgNothingToExport = "No bookings to export."
	ClearPrompt        = "Clear all bookings? This action cannot be undone."

	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

var ErrNothingToExport = errors.New("no bookings to export")

// Notifier is told about every stored booking. Failures do not undo the booking.
type Notifier interface {
	BookingCreated(ctx context.Context, b model.Booking) error
}

// Result is the outcome of a booking submission as the form should show it.
type Result struct {
	OK         bool
	Message    string
	ResetForm  bool
	ClearAfter time.Duration
	Booking    *model.Booking
}

// Confirm asks the operator a yes/no question.
type Confirm func(prompt string) bool

type Service interface {
	SubmitBooking(ctx context.Context, form model.BookingForm) (Result, error)
	RenderBookings(ctx context.Context) (Table, error)
	ExportCSV(ctx context.Context) (*Export, error)
	ExportXLSX(ctx context.Context) (*Export, error)
	ClearAll(ctx context.Context, confirm Confirm) (bool, Table, error)
}

type service struct {
	repo     repo.Repository
	log      *zerolog.Logger
	notifier Notifier
	display  Display
	ids      *IDGenerator
	now      func() time.Time

	// writeMu serialises read-modify-write cycles on the store within this process.
	writeMu sync.Mutex
}

// NewService wires the booking operations. notifier may be nil.
func NewService(repo repo.Repository, logger *zerolog.Logger, notifier Notifier, display Display) Service {
	return &service{
		repo:     repo,
		log:      logger,
		notifier: notifier,
		display:  display,
		ids:      NewIDGenerator(time.Now),
		now:      time.Now,
	}
}

func (s *service) SubmitBooking(ctx context.Context, form model.BookingForm) (Result, error) {
	form = form.Trimmed()

	if verr := validator.Validate(ctx, form); verr != nil {
		var fe *validator.FieldError
		if !errors.As(verr, &fe) {
			return Result{}, verr
		}
		msg, reason := MsgRequiredFields, "required"
		if fe.Tag == "isodate" {
			msg, reason = MsgInvalidDate, "date"
		}
		metrics.BookingsRejected.WithLabelValues(reason).Inc()
		s.log.Info().Str("field", fe.Field).Str("rule", fe.Tag).Msg("booking rejected by validation")
		return Result{Message: msg, ClearAfter: MessageTTL}, nil
	}

	booking := model.Booking{
		ID:        s.ids.Next(),
		Name:      form.Name,
		Phone:     form.Phone,
		Email:     form.Email,
		EventType: form.EventType,
		Date:      form.Date,
		Guests:    form.Guests,
		Notes:     form.Notes,
		CreatedAt: s.now().UTC().Format(isoMillis),
	}

	if err := s.prepend(ctx, booking); err != nil {
		return Result{}, err
	}

	metrics.BookingsSubmitted.Inc()
	s.log.Info().
		Str("booking_id", booking.ID).
		Str("event_type", booking.EventType).
		Str("date", booking.Date).
		Msg("booking stored")

	if s.notifier != nil {
		if err := s.notifier.BookingCreated(ctx, booking); err != nil {
			s.log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to publish booking notification")
		}
	}

	return Result{
		OK:         true,
		Message:    MsgSubmitted,
		ResetForm:  true,
		ClearAfter: MessageTTL,
		Booking:    &booking,
	}, nil
}

func (s *service) prepend(ctx context.Context, booking model.Booking) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	return s.repo.SaveAll(ctx, append([]model.Booking{booking}, records...))
}

// ClearAll removes every booking once confirm agrees. A declined or missing
// confirmation changes nothing.
func (s *service) ClearAll(ctx context.Context, confirm Confirm) (bool, Table, error) {
	if confirm == nil || !confirm(ClearPrompt) {
		return false, Table{}, nil
	}
	s.writeMu.Lock()
	err := s.repo.Clear(ctx)
	s.writeMu.Unlock()
	if err != nil {
		return false, Table{}, err
	}
	metrics.Clears.Inc()
	s.log.Warn().Msg("all bookings cleared")

	table, err := s.RenderBookings(ctx)
	if err != nil {
		return true, Table{}, err
	}
	return true, table, nil
}
