package valueobjects

import "fmt"

// Money is an amount in the smallest currency unit plus its ISO code.
type Money struct {
	amountInCents int64
	currency      string
}

// NewMoney creates a Money value. Amount is in cents (100 = 1.00).
func NewMoney(amountInCents int64, currency string) Money {
	return Money{
		amountInCents: amountInCents,
		currency:      currency,
	}
}

// NewMoneyFromFloat converts a decimal major-unit amount to cents.
func NewMoneyFromFloat(amount float64, currency string) Money {
	return NewMoney(int64(amount*100+0.5), currency)
}

func (m Money) AmountInCents() int64 {
	return m.amountInCents
}

// AmountFloat returns the amount in major units for gateway wire formats
// that take decimal strings.
func (m Money) AmountFloat() float64 {
	return float64(m.amountInCents) / 100
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) IsPositive() bool {
	return m.amountInCents > 0
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.AmountFloat(), m.currency)
}
