package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/events"
)

type mockEmail struct {
	SendFn   func(ctx context.Context, msg Message) error
	messages []Message
}

func (m *mockEmail) Send(ctx context.Context, msg Message) error {
	m.messages = append(m.messages, msg)
	if m.SendFn != nil {
		return m.SendFn(ctx, msg)
	}
	return nil
}

type mockSMS struct {
	SendFn func(ctx context.Context, phone, body string) error
	sent   []string
	phones []string
}

func (m *mockSMS) Send(ctx context.Context, phone, body string) error {
	m.sent = append(m.sent, body)
	m.phones = append(m.phones, phone)
	if m.SendFn != nil {
		return m.SendFn(ctx, phone, body)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEvent(t events.Type) events.OrderEvent {
	return events.OrderEvent{
		Type:        t,
		OrderNumber: "EM-20260830-A7K2",
		Status:      domain.OrderStatusPending,
		TotalKurus:  15550,
		Email:       "ayse@example.com",
		Phone:       "05321234567",
		FirstName:   "Ayşe",
		Items: []events.OrderEventItem{
			{ProductName: "Amasya Elması 1kg", Quantity: 2, TotalKurus: 9000},
			{ProductName: "Ceviz İçi 250g", Quantity: 1, TotalKurus: 6550},
		},
	}
}

func TestDispatchOrderCreated(t *testing.T) {
	email := &mockEmail{}
	sms := &mockSMS{}
	d := NewDispatcher(email, sms, nil, discardLogger())

	d.Dispatch(context.Background(), sampleEvent(events.TypeOrderCreated))

	if assert.Len(t, email.messages, 1) {
		msg := email.messages[0]
		assert.Equal(t, "ayse@example.com", msg.To)
		assert.Contains(t, msg.Subject, "EM-20260830-A7K2")
		assert.Contains(t, msg.Body, "Amasya Elması 1kg")
		assert.Contains(t, msg.Body, "155.50 TL")
	}
	if assert.Len(t, sms.sent, 1) {
		assert.Contains(t, sms.sent[0], "EM-20260830-A7K2")
		assert.Equal(t, "05321234567", sms.phones[0])
	}
}

func TestDispatchShippedIncludesTracking(t *testing.T) {
	email := &mockEmail{}
	sms := &mockSMS{}
	d := NewDispatcher(email, sms, nil, discardLogger())

	ev := sampleEvent(events.TypeOrderStatusChanged)
	ev.Status = domain.OrderStatusShipped
	ev.TrackingNumber = "YK123456789TR"
	ev.EstimatedDelivery = "02.09.2026"
	d.Dispatch(context.Background(), ev)

	if assert.Len(t, email.messages, 1) {
		assert.Contains(t, email.messages[0].Body, "YK123456789TR")
		assert.Contains(t, email.messages[0].Body, "02.09.2026")
	}
	if assert.Len(t, sms.sent, 1) {
		assert.Contains(t, sms.sent[0], "YK123456789TR")
	}
}

func TestDispatchCancelledIncludesReason(t *testing.T) {
	email := &mockEmail{}
	d := NewDispatcher(email, nil, nil, discardLogger())

	ev := sampleEvent(events.TypeOrderCancelled)
	ev.Status = domain.OrderStatusCancelled
	ev.Reason = "Müşteri talebi"
	d.Dispatch(context.Background(), ev)

	if assert.Len(t, email.messages, 1) {
		assert.Contains(t, email.messages[0].Body, "Müşteri talebi")
	}
}

func TestDispatchSendFailureDoesNotPanic(t *testing.T) {
	email := &mockEmail{SendFn: func(context.Context, Message) error { return errors.New("smtp down") }}
	sms := &mockSMS{SendFn: func(context.Context, string, string) error { return errors.New("gateway down") }}
	d := NewDispatcher(email, sms, nil, discardLogger())

	// Both channels fail; Dispatch must swallow the errors.
	d.Dispatch(context.Background(), sampleEvent(events.TypePaymentReceived))

	assert.Len(t, email.messages, 1)
	assert.Len(t, sms.sent, 1)
}

func TestDispatchSkipsInvalidPhone(t *testing.T) {
	sms := &mockSMS{}
	d := NewDispatcher(nil, sms, nil, discardLogger())

	ev := sampleEvent(events.TypeOrderCreated)
	ev.Phone = "1234"
	d.Dispatch(context.Background(), ev)

	assert.Empty(t, sms.sent)
}

func TestDispatchLongSMSStillSends(t *testing.T) {
	sms := &mockSMS{}
	d := NewDispatcher(nil, sms, nil, discardLogger())

	ev := sampleEvent(events.TypeOrderStatusChanged)
	ev.Status = domain.OrderStatusShipped
	ev.TrackingNumber = strings.Repeat("X", 200)
	d.Dispatch(context.Background(), ev)

	if assert.Len(t, sms.sent, 1) {
		assert.Greater(t, len(sms.sent[0]), smsSegmentLimit)
	}
}

func TestValidTurkishPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"05321234567", true},
		{"+905321234567", true},
		{"5321234567", true},
		{"02121234567", false},
		{"0532123456", false},
		{"053212345678", false},
		{"", false},
		{"abc", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidTurkishPhone(tt.phone), "phone %q", tt.phone)
	}
}
