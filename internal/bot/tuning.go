package bot

// Tuning holds the knobs shared by the strategies.
type Tuning struct {
	// LowCardValue: discard pile cards at or below this value are worth taking.
	LowCardValue int
	// FeedTolerance is how many points a hard bot gives up to avoid
	// discarding a card the next player is collecting.
	FeedTolerance int
	// CallMargin is added to the bot's own hand value before comparing it
	// with opponents' estimates.
	CallMargin float64
}

// DefaultTuning is used by NewBrain.
var DefaultTuning = Tuning{
	LowCardValue:  3,
	FeedTolerance: 3,
	CallMargin:    0,
}
