package notify

import (
	"fmt"
	"strings"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/events"
	"github.com/elmalimarket/elmali/internal/paytr"
)

// Subject and body builders for customer notifications. Messages are Turkish;
// amounts are formatted in lira from the kuruş values carried on the event.
// SMS bodies stick to ASCII so single-segment encoding survives every carrier.

func orderCreatedEmail(ev events.OrderEvent) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Merhaba %s,\n\n", ev.FirstName)
	fmt.Fprintf(&b, "Siparişiniz alındı. Sipariş numaranız: %s\n\n", ev.OrderNumber)
	if len(ev.Items) > 0 {
		b.WriteString("Sipariş içeriği:\n")
		for _, it := range ev.Items {
			fmt.Fprintf(&b, "  - %s x%d  %s TL\n", it.ProductName, it.Quantity, paytr.FormatLira(it.TotalKurus))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Toplam tutar: %s TL\n\n", paytr.FormatLira(ev.TotalKurus))
	b.WriteString("Elmalı Market'i tercih ettiğiniz için teşekkür ederiz.\n")
	return Message{
		To:      ev.Email,
		Subject: fmt.Sprintf("Siparişiniz alındı - %s", ev.OrderNumber),
		Body:    b.String(),
	}
}

func orderCreatedSMS(ev events.OrderEvent) string {
	return fmt.Sprintf("Elmali Market: %s numarali siparisiniz alindi. Toplam: %s TL", ev.OrderNumber, paytr.FormatLira(ev.TotalKurus))
}

func statusChangedEmail(ev events.OrderEvent) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Merhaba %s,\n\n", ev.FirstName)
	switch ev.Status {
	case domain.OrderStatusShipped:
		fmt.Fprintf(&b, "%s numaralı siparişiniz kargoya verildi.\n", ev.OrderNumber)
		if ev.TrackingNumber != "" {
			fmt.Fprintf(&b, "Kargo takip numaranız: %s\n", ev.TrackingNumber)
		}
		if ev.EstimatedDelivery != "" {
			fmt.Fprintf(&b, "Tahmini teslimat: %s\n", ev.EstimatedDelivery)
		}
	case domain.OrderStatusDelivered:
		fmt.Fprintf(&b, "%s numaralı siparişiniz teslim edildi. Afiyet olsun!\n", ev.OrderNumber)
	case domain.OrderStatusConfirmed:
		fmt.Fprintf(&b, "%s numaralı siparişiniz onaylandı ve hazırlanıyor.\n", ev.OrderNumber)
	case domain.OrderStatusPreparing:
		fmt.Fprintf(&b, "%s numaralı siparişiniz hazırlanıyor.\n", ev.OrderNumber)
	default:
		fmt.Fprintf(&b, "%s numaralı siparişinizin durumu güncellendi: %s\n", ev.OrderNumber, statusLabel(ev.Status))
	}
	b.WriteString("\nElmalı Market\n")
	return Message{
		To:      ev.Email,
		Subject: fmt.Sprintf("Sipariş durumu güncellendi - %s", ev.OrderNumber),
		Body:    b.String(),
	}
}

func statusChangedSMS(ev events.OrderEvent) string {
	switch ev.Status {
	case domain.OrderStatusShipped:
		if ev.TrackingNumber != "" {
			return fmt.Sprintf("Elmali Market: %s numarali siparisiniz kargoya verildi. Takip no: %s", ev.OrderNumber, ev.TrackingNumber)
		}
		return fmt.Sprintf("Elmali Market: %s numarali siparisiniz kargoya verildi.", ev.OrderNumber)
	case domain.OrderStatusDelivered:
		return fmt.Sprintf("Elmali Market: %s numarali siparisiniz teslim edildi. Afiyet olsun!", ev.OrderNumber)
	default:
		return fmt.Sprintf("Elmali Market: %s numarali siparisinizin durumu: %s", ev.OrderNumber, statusLabel(ev.Status))
	}
}

func orderCancelledEmail(ev events.OrderEvent) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Merhaba %s,\n\n", ev.FirstName)
	fmt.Fprintf(&b, "%s numaralı siparişiniz iptal edildi.\n", ev.OrderNumber)
	if ev.Reason != "" {
		fmt.Fprintf(&b, "İptal nedeni: %s\n", ev.Reason)
	}
	b.WriteString("\nÖdeme yaptıysanız iadeniz en kısa sürede gerçekleştirilecektir.\n\nElmalı Market\n")
	return Message{
		To:      ev.Email,
		Subject: fmt.Sprintf("Siparişiniz iptal edildi - %s", ev.OrderNumber),
		Body:    b.String(),
	}
}

func orderCancelledSMS(ev events.OrderEvent) string {
	return fmt.Sprintf("Elmali Market: %s numarali siparisiniz iptal edildi.", ev.OrderNumber)
}

func paymentReceivedEmail(ev events.OrderEvent) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Merhaba %s,\n\n", ev.FirstName)
	fmt.Fprintf(&b, "%s numaralı siparişiniz için %s TL tutarındaki ödemeniz alındı.\n", ev.OrderNumber, paytr.FormatLira(ev.TotalKurus))
	b.WriteString("Siparişiniz en kısa sürede hazırlanacaktır.\n\nElmalı Market\n")
	return Message{
		To:      ev.Email,
		Subject: fmt.Sprintf("Ödemeniz alındı - %s", ev.OrderNumber),
		Body:    b.String(),
	}
}

func paymentReceivedSMS(ev events.OrderEvent) string {
	return fmt.Sprintf("Elmali Market: %s siparisiniz icin %s TL odemeniz alindi.", ev.OrderNumber, paytr.FormatLira(ev.TotalKurus))
}

func paymentFailedEmail(ev events.OrderEvent) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Merhaba %s,\n\n", ev.FirstName)
	fmt.Fprintf(&b, "%s numaralı siparişiniz için ödeme alınamadı.\n", ev.OrderNumber)
	if ev.Reason != "" {
		fmt.Fprintf(&b, "Neden: %s\n", ev.Reason)
	}
	b.WriteString("\nSiparişiniz iptal edildi, ayrılan ürünler tekrar satışa açıldı. Dilerseniz yeni bir sipariş oluşturabilirsiniz.\n\nElmalı Market\n")
	return Message{
		To:      ev.Email,
		Subject: fmt.Sprintf("Ödeme alınamadı - %s", ev.OrderNumber),
		Body:    b.String(),
	}
}

func paymentFailedSMS(ev events.OrderEvent) string {
	return fmt.Sprintf("Elmali Market: %s siparisiniz icin odeme alinamadi, siparisiniz iptal edildi.", ev.OrderNumber)
}

func statusLabel(s domain.OrderStatus) string {
	switch s {
	case domain.OrderStatusPending:
		return "Beklemede"
	case domain.OrderStatusConfirmed:
		return "Onaylandı"
	case domain.OrderStatusPreparing:
		return "Hazırlanıyor"
	case domain.OrderStatusShipped:
		return "Kargoda"
	case domain.OrderStatusDelivered:
		return "Teslim edildi"
	case domain.OrderStatusCancelled:
		return "İptal edildi"
	default:
		return string(s)
	}
}
