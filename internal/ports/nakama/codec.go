package nakama

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"yaniv/internal/app"
	"yaniv/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrBadPayload is returned when a client message cannot be decoded.
var ErrBadPayload = errors.New("malformed payload")

// drawRequest is the decoded body of OpDraw.
type drawRequest struct {
	Source domain.DrawSource
	Card   *domain.Card
}

// encodePayload renders fields as a JSON object through google.protobuf.Struct.
func encodePayload(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}
	return protojson.Marshal(s)
}

// decodePayload parses a client message. An empty body decodes to an empty object.
func decodePayload(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return s, nil
}

func decodeDrawRequest(data []byte) (drawRequest, error) {
	s, err := decodePayload(data)
	if err != nil {
		return drawRequest{}, err
	}
	var req drawRequest
	source := s.GetFields()["source"].GetStringValue()
	switch domain.DrawSource(source) {
	case domain.SourceDeck, domain.SourceDiscard:
		req.Source = domain.DrawSource(source)
	case "":
		req.Source = domain.SourceDeck
	default:
		return drawRequest{}, fmt.Errorf("%w: unknown source %q", ErrBadPayload, source)
	}
	if v, ok := s.GetFields()["card"]; ok {
		card, err := cardFromValue(v)
		if err != nil {
			return drawRequest{}, err
		}
		req.Card = &card
	}
	return req, nil
}

func decodeDiscardRequest(data []byte) ([]domain.Card, error) {
	s, err := decodePayload(data)
	if err != nil {
		return nil, err
	}
	list := s.GetFields()["cards"].GetListValue()
	if list == nil || len(list.GetValues()) == 0 {
		return nil, fmt.Errorf("%w: cards required", ErrBadPayload)
	}
	cards := make([]domain.Card, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		card, err := cardFromValue(v)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func decodeSlapDownRequest(data []byte) (domain.Card, error) {
	s, err := decodePayload(data)
	if err != nil {
		return domain.Card{}, err
	}
	v, ok := s.GetFields()["card"]
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: card required", ErrBadPayload)
	}
	return cardFromValue(v)
}

// decodeStartRequest reads the optional tier and room options of OpStartGame.
func decodeStartRequest(data []byte) (string, map[string]any, error) {
	s, err := decodePayload(data)
	if err != nil {
		return "", nil, err
	}
	opts := s.AsMap()
	tier, _ := opts["tier"].(string)
	delete(opts, "tier")
	return tier, opts, nil
}

// cardFromValue accepts {"rank":7,"suit":"hearts"} or the short form "7H".
func cardFromValue(v *structpb.Value) (domain.Card, error) {
	if short, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		card, err := domain.ParseCard(short.StringValue)
		if err != nil {
			return domain.Card{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return card, nil
	}
	obj := v.GetStructValue()
	if obj == nil {
		return domain.Card{}, fmt.Errorf("%w: card must be an object", ErrBadPayload)
	}
	rank := obj.GetFields()["rank"].GetNumberValue()
	if rank != math.Trunc(rank) {
		return domain.Card{}, fmt.Errorf("%w: rank %v", ErrBadPayload, rank)
	}
	card := domain.Card{
		Rank: domain.Rank(int(rank)),
		Suit: domain.Suit(obj.GetFields()["suit"].GetStringValue()),
	}
	if !card.Valid() {
		return domain.Card{}, fmt.Errorf("%w: invalid card %d/%s", ErrBadPayload, card.Rank, card.Suit)
	}
	return card, nil
}

func cardValue(c domain.Card) map[string]any {
	return map[string]any{"rank": int(c.Rank), "suit": string(c.Suit)}
}

func cardsValue(cards []domain.Card) []any {
	out := make([]any, len(cards))
	for i, c := range cards {
		out[i] = cardValue(c)
	}
	return out
}

func stringsValue(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func intMapValue(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func int64MapValue(m map[string]int64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func handsValue(m map[string][]domain.Card) map[string]any {
	out := make(map[string]any, len(m))
	for k, cards := range m {
		out[k] = cardsValue(cards)
	}
	return out
}

func rulesValue(r domain.Rules) map[string]any {
	return map[string]any{
		"hand_size":           r.HandSize,
		"yaniv_threshold":     r.YanivThreshold,
		"assaf_penalty":       r.AssafPenalty,
		"elimination_score":   r.EliminationScore,
		"jokers":              r.Jokers,
		"min_straight_length": r.MinStraightLength,
		"jokers_wild":         r.JokersWild,
		"reshuffle_discard":   r.ReshuffleDiscard,
		"slap_down":           r.SlapDown,
		"min_players":         r.MinPlayers,
		"max_players":         r.MaxPlayers,
	}
}

func combinationValue(c domain.Combination) map[string]any {
	return map[string]any{
		"type":  c.Type.String(),
		"cards": cardsValue(c.Cards),
		"value": c.Value,
	}
}

func outcomeValue(o domain.RoundOutcome) map[string]any {
	return map[string]any{
		"round":        o.Round,
		"caller_id":    o.CallerID,
		"caller_value": o.CallerValue,
		"lowest_value": o.LowestValue,
		"assaf":        o.Assaf,
		"assaf_by":     stringsValue(o.AssafBy),
		"hands":        handsValue(o.Hands),
		"hand_values":  intMapValue(o.HandValues),
		"score_deltas": intMapValue(o.ScoreDeltas),
		"scores":       intMapValue(o.Scores),
		"game_ended":   o.GameEnded,
		"winners":      stringsValue(o.Winners),
		"eliminated":   stringsValue(o.Eliminated),
	}
}

// eventMessage maps an app event onto its op code and wire fields.
func eventMessage(ev app.Event) (int64, map[string]any, error) {
	switch p := ev.Payload.(type) {
	case app.GameStartedPayload:
		return OpGameStarted, map[string]any{
			"game_id":     p.GameID,
			"player_ids":  stringsValue(p.PlayerIDs),
			"first_turn":  p.FirstTurnUserID,
			"top_discard": cardsValue(p.TopDiscard),
			"deck_size":   p.DeckSize,
			"rules":       rulesValue(p.Rules),
			"base_bet":    p.BaseBet,
		}, nil
	case app.HandDealtPayload:
		return OpHandDealt, map[string]any{
			"user_id": p.UserID,
			"round":   p.Round,
			"hand":    cardsValue(p.Hand),
		}, nil
	case app.HandUpdatedPayload:
		return OpHandUpdated, map[string]any{
			"user_id": p.UserID,
			"hand":    cardsValue(p.Hand),
		}, nil
	case app.CardDrawnPayload:
		fields := map[string]any{
			"user_id":     p.UserID,
			"source":      string(p.Source),
			"hand_size":   p.HandSize,
			"deck_size":   p.DeckSize,
			"replenished": p.Replenished,
			"forced":      p.Forced,
		}
		if p.Card != nil {
			fields["card"] = cardValue(*p.Card)
		}
		return OpCardDrawn, fields, nil
	case app.CardsDiscardedPayload:
		return OpCardsDiscarded, map[string]any{
			"user_id":       p.UserID,
			"combination":   combinationValue(p.Combination),
			"next_turn":     p.NextTurnUserID,
			"pickup_cards":  cardsValue(p.PickupCards),
			"hand_size":     p.HandSize,
			"forced":        p.Forced,
			"slap_down_for": p.SlapDownFor,
		}, nil
	case app.CardSlappedPayload:
		return OpCardSlapped, map[string]any{
			"user_id":      p.UserID,
			"card":         cardValue(p.Card),
			"combination":  combinationValue(p.Combination),
			"pickup_cards": cardsValue(p.PickupCards),
			"hand_size":    p.HandSize,
		}, nil
	case app.RoundEndedPayload:
		return OpRoundEnded, outcomeValue(p.Outcome), nil
	case app.RoundStartedPayload:
		return OpRoundStarted, map[string]any{
			"game_id":     p.GameID,
			"round":       p.Round,
			"first_turn":  p.FirstTurnUserID,
			"top_discard": cardsValue(p.TopDiscard),
			"deck_size":   p.DeckSize,
			"scores":      intMapValue(p.Scores),
		}, nil
	case app.GameEndedPayload:
		return OpGameEnded, map[string]any{
			"game_id":         p.GameID,
			"winners":         stringsValue(p.Winners),
			"final_scores":    intMapValue(p.FinalScores),
			"balance_changes": int64MapValue(p.BalanceChanges),
		}, nil
	default:
		return 0, nil, fmt.Errorf("unknown event kind %s", ev.Kind)
	}
}

// viewValue renders a per-viewer game snapshot.
func viewValue(v *app.GameView) map[string]any {
	players := make([]any, 0, len(v.Players))
	for _, p := range v.Players {
		pv := map[string]any{
			"id":         p.ID,
			"hand_count": p.HandCount,
			"score":      p.Score,
			"status":     string(p.Status),
		}
		if p.Hand != nil {
			pv["hand"] = cardsValue(p.Hand)
		}
		players = append(players, pv)
	}
	out := map[string]any{
		"game_id":         v.GameID,
		"round":           v.Round,
		"phase":           string(v.Phase),
		"current_turn":    v.CurrentTurn,
		"players":         players,
		"deck_size":       v.DeckSize,
		"top_discard":     cardsValue(v.TopDiscard),
		"pickup_cards":    cardsValue(v.PickupCards),
		"can_call_yaniv":  v.CanCallYaniv,
		"ended":           v.Ended,
		"winners":         stringsValue(v.Winners),
		"yaniv_threshold": v.YanivThreshold,
	}
	if v.SlapDown != nil {
		out["slap_down"] = cardValue(*v.SlapDown)
	}
	return out
}

// matchLabel renders the label Nakama indexes for match listing.
func matchLabel(open int, state, tier string) (string, error) {
	b, err := encodePayload(map[string]any{
		MatchLabelKeyOpenSeats: open,
		MatchLabelKeyGame:      GameName,
		MatchLabelKeyState:     state,
		MatchLabelKeyTier:      tier,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
