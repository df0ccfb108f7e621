// Package notify delivers customer-facing order notifications over email and
// SMS. Delivery is best-effort: failures are logged and never propagate back
// into the order flow that triggered them.
package notify

import (
	"context"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/elmalimarket/elmali/internal/events"
	"github.com/elmalimarket/elmali/internal/telemetry"
)

// Turkish mobile numbers: optional +90 or 0 prefix, then 5XXXXXXXXX.
var trPhonePattern = regexp.MustCompile(`^(\+90|0)?5\d{9}$`)

// smsSegmentLimit is the single-segment GSM-7 length; longer bodies still
// send but cost extra segments.
const smsSegmentLimit = 160

// Dispatcher routes order events to the email and SMS channels. Either
// sender may be nil, which disables that channel.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

func NewDispatcher(email EmailSender, sms SMSSender, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{email: email, sms: sms, metrics: metrics, logger: logger}
}

// Dispatch sends the notifications for one order event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev events.OrderEvent) {
	switch ev.Type {
	case events.TypeOrderCreated:
		d.send(ctx, ev, orderCreatedEmail(ev), orderCreatedSMS(ev))
	case events.TypeOrderStatusChanged:
		d.send(ctx, ev, statusChangedEmail(ev), statusChangedSMS(ev))
	case events.TypeOrderCancelled:
		d.send(ctx, ev, orderCancelledEmail(ev), orderCancelledSMS(ev))
	case events.TypePaymentReceived:
		d.send(ctx, ev, paymentReceivedEmail(ev), paymentReceivedSMS(ev))
	case events.TypePaymentFailed:
		d.send(ctx, ev, paymentFailedEmail(ev), paymentFailedSMS(ev))
	default:
		d.logger.Warn("unknown notification event type",
			slog.String("type", string(ev.Type)),
			slog.String("order_number", ev.OrderNumber))
	}
}

func (d *Dispatcher) send(ctx context.Context, ev events.OrderEvent, email Message, smsBody string) {
	if d.email != nil && email.To != "" {
		if err := d.email.Send(ctx, email); err != nil {
			d.metrics.NotificationFailed("email")
			d.logger.Error("email notification failed",
				slog.String("order_number", ev.OrderNumber),
				slog.String("type", string(ev.Type)),
				slog.String("error", err.Error()))
		} else {
			d.metrics.NotificationSent("email")
			d.logger.Info("email notification sent",
				slog.String("order_number", ev.OrderNumber),
				slog.String("type", string(ev.Type)))
		}
	}

	if d.sms == nil || ev.Phone == "" {
		return
	}
	if !ValidTurkishPhone(ev.Phone) {
		d.logger.Warn("skipping sms, invalid phone number",
			slog.String("order_number", ev.OrderNumber))
		return
	}
	if utf8.RuneCountInString(smsBody) > smsSegmentLimit {
		d.logger.Warn("sms body exceeds single segment",
			slog.String("order_number", ev.OrderNumber),
			slog.Int("length", utf8.RuneCountInString(smsBody)))
	}
	if err := d.sms.Send(ctx, ev.Phone, smsBody); err != nil {
		d.metrics.NotificationFailed("sms")
		d.logger.Error("sms notification failed",
			slog.String("order_number", ev.OrderNumber),
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()))
	} else {
		d.metrics.NotificationSent("sms")
		d.logger.Info("sms notification sent",
			slog.String("order_number", ev.OrderNumber),
			slog.String("type", string(ev.Type)))
	}
}

// ValidTurkishPhone reports whether phone is a Turkish mobile number in any
// of the accepted prefixed forms.
func ValidTurkishPhone(phone string) bool {
	return trPhonePattern.MatchString(phone)
}
