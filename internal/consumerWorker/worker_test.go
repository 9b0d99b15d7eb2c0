package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srisai/internal/dto"
	"srisai/internal/model"
)

type fakeConsumer struct {
	handler func([]byte) error
	err     error
	ready   chan struct{}
}

func newFakeConsumer(err error) *fakeConsumer {
	return &fakeConsumer{err: err, ready: make(chan struct{})}
}

func (f *fakeConsumer) Consume(handler func([]byte) error) error {
	f.handler = handler
	close(f.ready)
	return f.err
}

type fakeSender struct {
	sent []model.Booking
	err  error
}

func (f *fakeSender) SendBookingEmail(b model.Booking) error {
	f.sent = append(f.sent, b)
	return f.err
}

func TestReaderDeliversBookings(t *testing.T) {
	log := zerolog.Nop()
	consumer := newFakeConsumer(nil)
	sender := &fakeSender{}
	r := NewReader(consumer, sender, &log)

	r.Start(context.Background())
	defer r.Stop()
	<-consumer.ready

	body, err := json.Marshal(dto.BookingNotification{Booking: model.Booking{ID: "bk_1", Name: "A"}})
	require.NoError(t, err)
	require.NoError(t, consumer.handler(body))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "bk_1", sender.sent[0].ID)

	assert.Error(t, consumer.handler([]byte("{broken")))
	assert.Len(t, sender.sent, 1)
}

func TestReaderIgnoresSendFailure(t *testing.T) {
	log := zerolog.Nop()
	sender := &fakeSender{err: errors.New("smtp down")}
	r := NewReader(newFakeConsumer(nil), sender, &log)

	body, _ := json.Marshal(dto.BookingNotification{Booking: model.Booking{ID: "bk_2"}})
	assert.NoError(t, r.handle(body))
	assert.Len(t, sender.sent, 1)
}

func TestReaderConsumeError(t *testing.T) {
	log := zerolog.Nop()
	consumer := newFakeConsumer(errors.New("channel closed"))
	r := NewReader(consumer, &fakeSender{}, &log)
	r.Start(context.Background())
	<-consumer.ready
	r.Stop()
}
