package paytr

// PayTR failure reason codes, as delivered in get-token rejections and in
// the failed_reason_code callback field. The code is preserved end to end
// so the storefront can show targeted remediation copy instead of a generic
// payment error.
const (
	FailCodeDeclined     = "0"  // bank declined the card
	FailCodeInsufficient = "1"  // insufficient funds
	FailCodeInvalidCard  = "2"  // card number/expiry/CVV rejected
	FailCodeFraudBlock   = "3"  // blocked by fraud rules
	FailCodeThreeDSFail  = "6"  // 3D Secure verification failed
	FailCodeTimeout      = "8"  // shopper did not complete in time
	FailCodeCancelled    = "9"  // shopper abandoned the payment page
	FailCodeTestDecline  = "99" // test-mode simulated decline
)

// remediationMessages maps provider codes to user-facing Turkish copy.
var remediationMessages = map[string]string{
	FailCodeDeclined:     "Bankanız işlemi onaylamadı. Lütfen bankanızla görüşün veya başka bir kart deneyin.",
	FailCodeInsufficient: "Kartınızda yeterli bakiye bulunmuyor. Lütfen başka bir kart deneyin.",
	FailCodeInvalidCard:  "Kart bilgileri doğrulanamadı. Lütfen kart numarası, son kullanma tarihi ve CVV bilgilerini kontrol edin.",
	FailCodeFraudBlock:   "İşlem güvenlik nedeniyle reddedildi. Lütfen bankanızla iletişime geçin.",
	FailCodeThreeDSFail:  "3D Secure doğrulaması tamamlanamadı. Lütfen tekrar deneyin.",
	FailCodeTimeout:      "Ödeme süresi doldu. Lütfen ödemeyi yeniden başlatın.",
	FailCodeCancelled:    "Ödeme işlemi iptal edildi. Dilerseniz tekrar deneyebilirsiniz.",
	FailCodeTestDecline:  "Test işlemi reddedildi.",
}

// RemediationMessage returns the user-facing message for a provider failure
// code, falling back to generic payment copy for unknown codes.
func RemediationMessage(code string) string {
	if msg, ok := remediationMessages[code]; ok {
		return msg
	}
	return "Ödeme alınamadı. Lütfen kart bilgilerinizi kontrol edip tekrar deneyin."
}
