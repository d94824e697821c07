package planner

// Budget caps the number of model invocations within one turn. It is owned by
// a single turn and must not be shared across concurrently executing turns.
type Budget struct {
	maxCalls  int
	callsUsed int
}

func NewBudget(maxCalls int) *Budget {
	if maxCalls < 0 {
		maxCalls = 0
	}
	return &Budget{maxCalls: maxCalls}
}

// Consume takes one unit of budget, reporting false and leaving the counter
// untouched once the cap is reached.
func (b *Budget) Consume() bool {
	if b.callsUsed >= b.maxCalls {
		return false
	}
	b.callsUsed++
	return true
}

// Remaining never goes below zero.
func (b *Budget) Remaining() int {
	if r := b.maxCalls - b.callsUsed; r > 0 {
		return r
	}
	return 0
}

func (b *Budget) Used() int { return b.callsUsed }

func (b *Budget) Max() int { return b.maxCalls }
