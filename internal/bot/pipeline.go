package bot

import (
	"yaniv/internal/bot/brain"
	"yaniv/internal/domain"
)

// SelectionContext holds the state for the discard decision pipeline.
type SelectionContext struct {
	Candidates    []domain.Combination
	SelectedIndex int
	Rules         domain.Rules
	Tuning        Tuning
	// Next is the profile of the player who draws after the bot, if known.
	Next *brain.OpponentProfile
}

// Selected returns the currently chosen discard.
func (ctx *SelectionContext) Selected() domain.Combination {
	if ctx.SelectedIndex < 0 || ctx.SelectedIndex >= len(ctx.Candidates) {
		return domain.Combination{Type: domain.Invalid}
	}
	return ctx.Candidates[ctx.SelectedIndex]
}

// SelectionRule represents a logic unit that can influence which discard is chosen.
type SelectionRule interface {
	Name() string
	Apply(ctx *SelectionContext)
}

// ShedMostRule picks the discard worth the most points, more cards on ties.
type ShedMostRule struct{}

func (r *ShedMostRule) Name() string { return "ShedMost" }

func (r *ShedMostRule) Apply(ctx *SelectionContext) {
	best := -1
	for i, c := range ctx.Candidates {
		if best < 0 || better(c, ctx.Candidates[best]) {
			best = i
		}
	}
	ctx.SelectedIndex = best
}

// AvoidFeedingRule swaps the chosen discard for a slightly cheaper one when
// the chosen discard would leave a card the next player is collecting on top
// of the pile.
type AvoidFeedingRule struct{}

func (r *AvoidFeedingRule) Name() string { return "AvoidFeeding" }

func (r *AvoidFeedingRule) Apply(ctx *SelectionContext) {
	current := ctx.Selected()
	if ctx.Next == nil || current.Type == domain.Invalid || !feeds(current, ctx.Next, ctx.Rules) {
		return
	}
	alt := -1
	for i, c := range ctx.Candidates {
		if current.Value-c.Value > ctx.Tuning.FeedTolerance || feeds(c, ctx.Next, ctx.Rules) {
			continue
		}
		if alt < 0 || better(c, ctx.Candidates[alt]) {
			alt = i
		}
	}
	if alt >= 0 {
		ctx.SelectedIndex = alt
	}
}

func feeds(c domain.Combination, next *brain.OpponentProfile, rules domain.Rules) bool {
	for _, card := range domain.PickupOptions(c) {
		if next.Wants(card, rules) {
			return true
		}
	}
	return false
}

func better(a, b domain.Combination) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return len(a.Cards) > len(b.Cards)
}

// selectDiscard runs the rules over the legal discards of hand.
func selectDiscard(hand []domain.Card, rules domain.Rules, tuning Tuning, next *brain.OpponentProfile, pipeline ...SelectionRule) domain.Combination {
	ctx := &SelectionContext{
		Candidates: domain.LegalDiscards(hand, rules),
		Rules:      rules,
		Tuning:     tuning,
		Next:       next,
	}
	for _, rule := range pipeline {
		rule.Apply(ctx)
	}
	return ctx.Selected()
}
