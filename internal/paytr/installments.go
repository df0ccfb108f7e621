package paytr

// SupportedInstallments are the installment counts the storefront offers.
// Single payment carries no markup; longer terms apply the bank's rate.
var SupportedInstallments = []int{1, 2, 3, 6, 9, 12}

// installmentRates are the percentage markups per installment count.
var installmentRates = map[int]float64{
	1:  0,
	2:  3.49,
	3:  5.49,
	6:  9.99,
	9:  13.99,
	12: 17.99,
}

// InstallmentOption is one row of the installment table shown at checkout.
// Amounts are kuruş.
type InstallmentOption struct {
	Count        int     `json:"count"`
	RatePercent  float64 `json:"ratePercent"`
	MonthlyKurus int64   `json:"monthlyAmount"`
	TotalKurus   int64   `json:"totalAmount"`
}

// ValidInstallment reports whether count is an offered installment option.
func ValidInstallment(count int) bool {
	_, ok := installmentRates[count]
	return ok
}

// ComputeInstallments builds the installment table for a kuruş amount.
// The per-month amount is rounded down; the remainder lands on the first
// installment on the bank side, so the advertised total stays exact.
func ComputeInstallments(amountKurus int64) []InstallmentOption {
	opts := make([]InstallmentOption, 0, len(SupportedInstallments))
	for _, n := range SupportedInstallments {
		rate := installmentRates[n]
		total := amountKurus + ToKurus(float64(amountKurus)/100*rate/100)
		opts = append(opts, InstallmentOption{
			Count:        n,
			RatePercent:  rate,
			MonthlyKurus: total / int64(n),
			TotalKurus:   total,
		})
	}
	return opts
}
