package inventory

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotDeduction is one planned deduction against a specific lot
type LotDeduction struct {
	LotID          uuid.UUID       `json:"lot_id"`
	LotNumber      string          `json:"lot_number"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
}

// AllocationPlan is the result of planning an outbound quantity across
// lots. A plan is computed in full before any lot is touched, so an
// unfulfillable request leaves every lot untouched.
type AllocationPlan struct {
	Requested      decimal.Decimal `json:"requested"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	Shortfall      decimal.Decimal `json:"shortfall"`
	Fulfillable    bool            `json:"fulfillable"`
	Deductions     []LotDeduction  `json:"deductions"`
}

// SortLotsFEFO orders lots first-expired-first-out: earliest expiry
// first, lots without an expiry date last, ties broken by earliest
// production date and then by creation time.
func SortLotsFEFO(lots []Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate != nil:
			if !a.ExpiryDate.Equal(*b.ExpiryDate) {
				return a.ExpiryDate.Before(*b.ExpiryDate)
			}
		case a.ExpiryDate != nil:
			return true
		case b.ExpiryDate != nil:
			return false
		}
		if !a.ProductionDate.Equal(b.ProductionDate) {
			return a.ProductionDate.Before(b.ProductionDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// PlanFEFO walks allocatable lots in FEFO order and plans deductions
// until the requested quantity is covered. When total available stock
// is short of the request, the plan is marked unfulfillable and carries
// no deductions.
func PlanFEFO(requested decimal.Decimal, lots []Lot) *AllocationPlan {
	plan := &AllocationPlan{
		Requested:      requested,
		TotalAvailable: decimal.Zero,
		Shortfall:      decimal.Zero,
	}
	if !requested.IsPositive() {
		plan.Fulfillable = true
		return plan
	}

	allocatable := make([]Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.IsAllocatable() {
			allocatable = append(allocatable, lot)
			plan.TotalAvailable = plan.TotalAvailable.Add(lot.CurrentQuantity)
		}
	}

	if plan.TotalAvailable.LessThan(requested) {
		plan.Shortfall = requested.Sub(plan.TotalAvailable)
		return plan
	}

	SortLotsFEFO(allocatable)

	remaining := requested
	for _, lot := range allocatable {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, lot.CurrentQuantity)
		plan.Deductions = append(plan.Deductions, LotDeduction{
			LotID:          lot.ID,
			LotNumber:      lot.LotNumber,
			Quantity:       take,
			UnitCost:       lot.UnitCost,
			QuantityBefore: lot.CurrentQuantity,
			QuantityAfter:  lot.CurrentQuantity.Sub(take),
		})
		remaining = remaining.Sub(take)
	}

	plan.Fulfillable = true
	return plan
}

// WeightedUnitCost returns the quantity-weighted average unit cost of
// the planned deductions, used to value the resulting movement.
func (p *AllocationPlan) WeightedUnitCost() decimal.Decimal {
	total := decimal.Zero
	value := decimal.Zero
	for _, d := range p.Deductions {
		total = total.Add(d.Quantity)
		value = value.Add(d.Quantity.Mul(d.UnitCost))
	}
	if total.IsZero() {
		return decimal.Zero
	}
	return value.Div(total).Round(4)
}
