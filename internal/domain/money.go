package domain

import (
	"fmt"
	"math"
)

// Money is an amount of platform balance in cents.
type Money int64

// CentsPerCoin converts gift coins into balance.
const CentsPerCoin = 100

// CoinsToMoney returns the balance value of n coins.
func CoinsToMoney(n int64) Money {
	return Money(n * CentsPerCoin)
}

// MoneyFromFloat converts a decimal amount such as 12.34 to cents.
func MoneyFromFloat(v float64) Money {
	return Money(math.Round(v * CentsPerCoin))
}

func (m Money) Float() float64 {
	return float64(m) / CentsPerCoin
}

// MulRate scales m by a fraction, rounding half away from zero.
func (m Money) MulRate(rate float64) Money {
	return Money(math.Round(float64(m) * rate))
}

func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/CentsPerCoin, int64(m)%CentsPerCoin)
}
