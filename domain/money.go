package domain

import (
	"immigration_crm_go/models"
	"math"
)

// MilestonePaymentAmount derives the amount a case milestone is worth at instantiation.
// A non-zero percentage of the case total wins over the absolute default.
func MilestonePaymentAmount(totalPrice float64, percentage, defaultAmount *float64) float64 {
	if percentage != nil && *percentage != 0 {
		return totalPrice * *percentage / 100
	}
	if defaultAmount != nil {
		return *defaultAmount
	}
	return 0
}

// MilestoneBasis is the part of the price the milestones still have to collect
// once the initial payment is taken out. Never negative.
func MilestoneBasis(totalPrice, initialPayment float64) float64 {
	return math.Max(totalPrice-initialPayment, 0)
}

// AmountOwed is the contracted price minus the initial payment. Negative means overpaid.
func AmountOwed(totalPrice, initialPayment float64) float64 {
	return totalPrice - initialPayment
}

// CollectedAmount sums the payment amounts of collected milestones
func CollectedAmount(milestones []models.CaseMilestone) float64 {
	var total float64
	for _, m := range milestones {
		if m.IsPaymentCollected {
			total += m.PaymentAmount
		}
	}
	return total
}

// PricePaid is the money received on a case: the initial payment plus every
// collected milestone payment. Milestone amounts are derived from
// MilestoneBasis, so the initial payment is never counted twice.
func PricePaid(initialPayment float64, milestones []models.CaseMilestone) float64 {
	return initialPayment + CollectedAmount(milestones)
}

// PriceRemaining may be negative when a case was overpaid
func PriceRemaining(totalPrice, pricePaid float64) float64 {
	return totalPrice - pricePaid
}

// ProfitMargin returns net/income as a percentage, and 0 when there is no income
func ProfitMargin(income, netProfit float64) float64 {
	if income <= 0 {
		return 0
	}
	return netProfit / income * 100
}

// Average guards the division for empty groups
func Average(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
