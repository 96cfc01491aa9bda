package nakama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"yaniv/internal/app"
	"yaniv/internal/bot"
	"yaniv/internal/config"
	"yaniv/internal/domain"
	"yaniv/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// mockBotBalancer implements BotBalancer for testing.
type mockBotBalancer struct {
	accounts map[string]*api.Account
	wallets  map[string]map[string]int64
}

func (m *mockBotBalancer) AccountGetId(ctx context.Context, userID string) (*api.Account, error) {
	if acc, ok := m.accounts[userID]; ok {
		return acc, nil
	}
	// Return a default account with empty wallet if not found, to avoid nil pointers in logic
	return &api.Account{Wallet: "{}"}, nil
}

func (m *mockBotBalancer) WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (map[string]int64, map[string]int64, error) {
	if m.wallets == nil {
		m.wallets = make(map[string]map[string]int64)
	}
	if _, ok := m.wallets[userID]; !ok {
		m.wallets[userID] = make(map[string]int64)
	}
	prev := make(map[string]int64)
	for k, v := range m.wallets[userID] {
		prev[k] = v
	}
	for k, v := range changeset {
		m.wallets[userID][k] += v
	}
	return m.wallets[userID], prev, nil
}

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []string // empty means broadcast
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	lastOpCode     int64
	lastData       []byte
	lastLabel      string
	sent           []sentMessage
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.lastOpCode = opCode
	md.lastData = append([]byte(nil), data...)
	msg := sentMessage{opCode: opCode, data: md.lastData}
	for _, p := range presences {
		msg.recipients = append(msg.recipients, p.GetUserId())
	}
	md.sent = append(md.sent, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

// byOpCode returns the recorded messages with the op code.
func (md *mockDispatcher) byOpCode(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.sent {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

type mockEconomy struct {
	balances map[string]int64
	calls    map[string]int
	updates  []ports.WalletUpdate
}

func (me *mockEconomy) GetBalance(ctx context.Context, userID string) (int64, error) {
	if me.calls == nil {
		me.calls = make(map[string]int)
	}
	me.calls[userID]++
	if balance, ok := me.balances[userID]; ok {
		return balance, nil
	}
	return 0, errors.New("balance not found")
}

func (me *mockEconomy) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	me.updates = append(me.updates, updates...)
	return nil
}

// testPresence overrides the identity getters of runtime.Presence.
type testPresence struct {
	runtime.Presence
	userID string
}

func (p testPresence) GetUserId() string   { return p.userID }
func (p testPresence) GetUsername() string { return "name-" + p.userID }

// testMatchData is a client message.
type testMatchData struct {
	runtime.MatchData
	userID string
	opCode int64
	data   []byte
}

func (m testMatchData) GetUserId() string { return m.userID }
func (m testMatchData) GetOpCode() int64  { return m.opCode }
func (m testMatchData) GetData() []byte   { return m.data }

func init() {
	// Load bot identities for testing.
	if err := bot.LoadIdentities("test_bot_identities.json"); err != nil {
		panic("Failed to load bot identities for tests: " + err.Error())
	}
}

func decodeSent(t *testing.T, data []byte) *structpb.Struct {
	t.Helper()
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		t.Fatalf("Failed to unmarshal payload %s: %v", data, err)
	}
	return s
}

func testConfig() *config.GameConfig {
	cfg := config.Default()
	cfg.TaxRate = 0
	return cfg
}

// newTestMatch seats the humans in join order.
func newTestMatch(t *testing.T, humans ...string) (*matchHandler, *MatchState, *mockDispatcher) {
	t.Helper()
	handler := newMatchHandler()
	dispatcher := &mockDispatcher{}
	state := NewMatchState(testConfig(), "")
	state.App = app.NewService(rand.New(rand.NewSource(7)))
	state.Rand = rand.New(rand.NewSource(7))

	presences := make([]runtime.Presence, 0, len(humans))
	for _, id := range humans {
		presences = append(presences, testPresence{userID: id})
	}
	handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, presences)
	return handler, state, dispatcher
}

func send(handler *matchHandler, state *MatchState, dispatcher *mockDispatcher, tick int64, userID string, opCode int64, payload string) {
	msg := testMatchData{userID: userID, opCode: opCode, data: []byte(payload)}
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, tick, state, []runtime.MatchData{msg})
}

func TestFindFirstConnectedHumanSeat(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID
	bot2 := bot.GetBotIdentity(1).UserID

	tests := []struct {
		name     string
		seats    []string
		departed map[string]bool
		want     int
	}{
		{
			name:  "FirstHumanAfterBot",
			seats: []string{bot1, "user-1", "", ""},
			want:  1,
		},
		{
			name:  "AllBots",
			seats: []string{bot1, bot2, "", ""},
			want:  -1,
		},
		{
			name:  "AllEmpty",
			seats: []string{"", "", "", ""},
			want:  -1,
		},
		{
			name:  "FirstHumanIsSeatZero",
			seats: []string{"user-1", bot1, "user-2", ""},
			want:  0,
		},
		{
			name:     "SkipsDepartedHuman",
			seats:    []string{"user-1", bot1, "user-2", ""},
			departed: map[string]bool{"user-1": true},
			want:     2,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := findFirstConnectedHumanSeat(test.seats, test.departed); got != test.want {
				t.Fatalf("findFirstConnectedHumanSeat() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestShouldTerminateNoHumans(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID
	bot2 := bot.GetBotIdentity(1).UserID
	bot3 := bot.GetBotIdentity(2).UserID
	bot4 := bot.GetBotIdentity(3).UserID

	tests := []struct {
		name     string
		seats    []string
		departed map[string]bool
		want     bool
	}{
		{
			name:  "BotsOnly",
			seats: []string{bot1, bot2, bot3, bot4},
			want:  true,
		},
		{
			name:  "BotsAndEmpty",
			seats: []string{bot1, "", bot3, ""},
			want:  true,
		},
		{
			name:  "HumansPresent",
			seats: []string{bot1, "user-1", "", ""},
			want:  false,
		},
		{
			name:     "OnlyDepartedHumans",
			seats:    []string{bot1, "user-1", "", ""},
			departed: map[string]bool{"user-1": true},
			want:     true,
		},
		{
			name:  "AllEmpty",
			seats: []string{"", "", "", ""},
			want:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := shouldTerminateNoHumans(test.seats, test.departed); got != test.want {
				t.Fatalf("shouldTerminateNoHumans() = %t, want %t", got, test.want)
			}
		})
	}
}

func TestMatchLabel_Marshal(t *testing.T) {
	tests := []struct {
		name     string
		open     int
		state    string
		tier     string
		expected string
	}{
		{
			name:     "LobbyState",
			open:     3,
			state:    labelStateLobby,
			tier:     "casual",
			expected: `{"game":"yaniv","open":3,"state":"lobby","tier":"casual"}`,
		},
		{
			name:     "PlayingState",
			open:     0,
			state:    labelStatePlaying,
			tier:     "vip",
			expected: `{"game":"yaniv","open":0,"state":"playing","tier":"vip"}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			label, err := matchLabel(test.open, test.state, test.tier)
			if err != nil {
				t.Fatalf("Failed to marshal label: %v", err)
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, []byte(label)); err != nil {
				t.Fatalf("Failed to compact label JSON: %v", err)
			}
			if compact.String() != test.expected {
				t.Errorf("Got %s, want %s", compact.String(), test.expected)
			}
		})
	}
}

func TestResetTurnSecondsRemainingWithBonus(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")
	if state.Game == nil {
		t.Fatalf("game did not start")
	}

	handler.resetTurnSecondsRemainingWithBonus(state, noopLogger{}, gameStartTurnTimerBonusSeconds)

	want := int64(state.Config.TurnDurationSeconds + gameStartTurnTimerBonusSeconds)
	if state.TurnSecondsRemaining != want {
		t.Fatalf("TurnSecondsRemaining = %d, want %d", state.TurnSecondsRemaining, want)
	}
	if state.TurnUserID != state.Game.State.CurrentPlayer().ID {
		t.Fatalf("TurnUserID = %q, want current player", state.TurnUserID)
	}
}

func TestProcessBots_AddsTwoBotsForSoloHuman(t *testing.T) {
	handler := newMatchHandler()
	dispatcher := &mockDispatcher{}
	state := NewMatchState(testConfig(), "")
	state.Seats[0] = "user-1"
	state.Presences["user-1"] = testPresence{userID: "user-1"}
	state.BotAutoFillDelay = 2
	state.LastSinglePlayerTick = 8
	state.Tick = 10

	balancer := &mockBotBalancer{
		accounts: make(map[string]*api.Account),
	}
	handler.processBots(context.Background(), state, dispatcher, noopLogger{}, balancer)

	botCount := 0
	for _, seat := range state.Seats {
		if isBotUserId(seat) {
			botCount++
			if got := balancer.wallets[seat][walletCurrency]; got != botMinimumBalance {
				t.Fatalf("bot %s wallet = %d, want %d", seat, got, botMinimumBalance)
			}
			if state.Bots[seat] == nil {
				t.Fatalf("no agent created for bot %s", seat)
			}
		}
	}

	if botCount != 2 {
		t.Fatalf("Expected 2 bots, got %d", botCount)
	}
	if state.GetOpenSeatsCount() != 1 {
		t.Fatalf("Expected 1 open seat after auto-fill, got %d", state.GetOpenSeatsCount())
	}
	if state.LastSinglePlayerTick != 0 {
		t.Fatalf("Expected auto-fill timer reset, got %d", state.LastSinglePlayerTick)
	}
	if dispatcher.broadcastCount == 0 || dispatcher.labelUpdates == 0 {
		t.Fatalf("Expected match state broadcast and label update after auto-fill")
	}
}

func TestProcessBots_WaitsForAutoFillDelay(t *testing.T) {
	handler := newMatchHandler()
	state := NewMatchState(testConfig(), "")
	state.Seats[0] = "user-1"
	state.BotAutoFillDelay = 5
	state.Tick = 10

	handler.processBots(context.Background(), state, &mockDispatcher{}, noopLogger{}, nil)
	if state.LastSinglePlayerTick != 10 {
		t.Fatalf("auto-fill timer = %d, want 10", state.LastSinglePlayerTick)
	}
	if state.GetOccupiedSeatCount() != 1 {
		t.Fatalf("bots added before the delay")
	}
}

func TestBroadcastMatchState_IncludesBalances(t *testing.T) {
	handler := newMatchHandler()
	dispatcher := &mockDispatcher{}
	botID := bot.GetBotIdentity(0).UserID
	economy := &mockEconomy{
		balances: map[string]int64{
			"user-1": 1200,
			botID:    5000,
		},
	}
	state := NewMatchState(testConfig(), "")
	state.Seats[0] = "user-1"
	state.Seats[1] = botID
	state.OwnerSeat = 0
	state.Tick = 42
	state.Presences["user-1"] = testPresence{userID: "user-1"}
	state.Economy = economy

	handler.broadcastMatchState(context.Background(), state, dispatcher, noopLogger{})

	if dispatcher.lastOpCode != OpMatchState {
		t.Fatalf("Expected opcode %d, got %d", OpMatchState, dispatcher.lastOpCode)
	}
	if len(dispatcher.lastData) == 0 {
		t.Fatalf("Expected snapshot payload to be broadcast")
	}

	snapshot := decodeSent(t, dispatcher.lastData)
	balances := make(map[string]int64)
	for _, v := range snapshot.GetFields()["players"].GetListValue().GetValues() {
		player := v.GetStructValue().GetFields()
		balances[player["user_id"].GetStringValue()] = int64(player["balance"].GetNumberValue())
	}

	if got := balances["user-1"]; got != 1200 {
		t.Fatalf("Expected human balance 1200, got %d", got)
	}
	if got := balances[botID]; got != 5000 {
		t.Fatalf("Expected bot balance 5000, got %d", got)
	}
	if economy.calls["user-1"] != 1 {
		t.Fatalf("Expected balance lookup for human, got %d", economy.calls["user-1"])
	}
	if economy.calls[botID] != 1 {
		t.Fatalf("Expected balance lookup for bot, got %d", economy.calls[botID])
	}
}

func TestStartGame_OwnerOnly(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")

	send(handler, state, dispatcher, 1, "user-2", OpStartGame, "")
	if state.Game != nil {
		t.Fatalf("non-owner started the game")
	}
	errs := dispatcher.byOpCode(OpError)
	if len(errs) != 1 || errs[0].recipients[0] != "user-2" {
		t.Fatalf("expected one private error for user-2, got %+v", errs)
	}
	if code := decodeSent(t, errs[0].data).GetFields()["code"].GetNumberValue(); code != errCodeForbidden {
		t.Fatalf("error code = %v, want %d", code, errCodeForbidden)
	}

	send(handler, state, dispatcher, 2, "user-1", OpStartGame, "")
	if state.Game == nil {
		t.Fatalf("owner could not start the game")
	}
	if len(dispatcher.byOpCode(OpGameStarted)) != 1 {
		t.Fatalf("expected one game_started broadcast")
	}
	dealt := dispatcher.byOpCode(OpHandDealt)
	if len(dealt) != 2 {
		t.Fatalf("hand_dealt messages = %d, want 2", len(dealt))
	}
	for _, m := range dealt {
		if len(m.recipients) != 1 {
			t.Fatalf("hand_dealt must be private, went to %v", m.recipients)
		}
		owner := decodeSent(t, m.data).GetFields()["user_id"].GetStringValue()
		if owner != m.recipients[0] {
			t.Fatalf("hand of %s sent to %s", owner, m.recipients[0])
		}
	}
	if dispatcher.lastLabel == "" || !bytes.Contains([]byte(dispatcher.lastLabel), []byte(labelStatePlaying)) {
		t.Fatalf("label = %s, want playing", dispatcher.lastLabel)
	}
}

func TestStartGame_NeedsTwoPlayers(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")
	if state.Game != nil {
		t.Fatalf("game started with one player")
	}
	errs := dispatcher.byOpCode(OpError)
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(errs))
	}
	if reason := decodeSent(t, errs[0].data).GetFields()["reason"].GetStringValue(); reason != "too_few_players" {
		t.Fatalf("reason = %q, want too_few_players", reason)
	}
}

func TestTurnIntents(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")

	current := state.Game.State.CurrentPlayer().ID
	other := "user-1"
	if current == other {
		other = "user-2"
	}

	before := state.Game.State.Clone()
	send(handler, state, dispatcher, 2, other, OpDraw, `{"source":"deck"}`)
	if len(dispatcher.byOpCode(OpError)) != 1 {
		t.Fatalf("out-of-turn draw was not rejected")
	}
	if state.Game.State.Round.Phase != before.Round.Phase || len(state.Game.State.Round.Deck) != len(before.Round.Deck) {
		t.Fatalf("rejected draw changed the game")
	}

	send(handler, state, dispatcher, 3, current, OpDraw, `{"source":"deck"}`)
	if state.Game.State.Round.Phase != domain.PhaseAwaitingDiscard {
		t.Fatalf("phase = %s, want awaiting_discard", state.Game.State.Round.Phase)
	}
	drawn := dispatcher.byOpCode(OpCardDrawn)
	if len(drawn) != 1 || len(drawn[0].recipients) != 0 {
		t.Fatalf("card_drawn should be broadcast once, got %+v", drawn)
	}
	if _, ok := decodeSent(t, drawn[0].data).GetFields()["card"]; ok {
		t.Fatalf("deck draw revealed the card")
	}

	p, _ := state.Game.State.Player(current)
	payload, _ := json.Marshal(map[string]any{"cards": []string{p.Hand[0].String()}})
	send(handler, state, dispatcher, 4, current, OpDiscard, string(payload))
	if got := state.Game.State.CurrentPlayer().ID; got != other {
		t.Fatalf("turn = %s, want %s", got, other)
	}
	if state.TurnUserID != other {
		t.Fatalf("turn timer runs for %q, want %q", state.TurnUserID, other)
	}
	if len(dispatcher.byOpCode(OpCardsDiscarded)) != 1 {
		t.Fatalf("expected one cards_discarded event")
	}
}

func TestTurnTimerForcesTurn(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")
	first := state.Game.State.CurrentPlayer().ID

	ticks := state.TurnSecondsRemaining
	for i := int64(1); i <= ticks; i++ {
		handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 1+i, state, nil)
	}

	if got := state.Game.State.CurrentPlayer().ID; got == first {
		t.Fatalf("turn of %s was not forced", first)
	}
	discarded := dispatcher.byOpCode(OpCardsDiscarded)
	if len(discarded) != 1 {
		t.Fatalf("cards_discarded = %d, want 1", len(discarded))
	}
	if !decodeSent(t, discarded[0].data).GetFields()["forced"].GetBoolValue() {
		t.Fatalf("forced discard not flagged")
	}
	if !state.Game.State.IsConserved() {
		t.Fatalf("forced turn lost cards")
	}
}

// rigYaniv gives the current player a callable hand and the other player a
// high hand on top of score.
func rigYaniv(t *testing.T, state *MatchState, otherScore int) (caller, other string) {
	t.Helper()
	caller = state.Game.State.CurrentPlayer().ID
	for i := range state.Game.State.Players {
		p := &state.Game.State.Players[i]
		if p.ID == caller {
			p.Hand = []domain.Card{{Rank: domain.RankAce, Suit: domain.SuitSpades}, {Rank: 2, Suit: domain.SuitSpades}}
			continue
		}
		other = p.ID
		p.Hand = []domain.Card{{Rank: domain.RankKing, Suit: domain.SuitHearts}, {Rank: domain.RankQueen, Suit: domain.SuitHearts}}
		p.Score = otherScore
	}
	return caller, other
}

func TestRoundBreakDealsNextRound(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")
	caller, _ := rigYaniv(t, state, 0)

	send(handler, state, dispatcher, 2, caller, OpCallYaniv, "")
	if len(dispatcher.byOpCode(OpRoundEnded)) != 1 {
		t.Fatalf("round_ended not broadcast")
	}
	want := int64(2 + state.Config.RoundBreakSeconds)
	if state.NextRoundTick != want {
		t.Fatalf("NextRoundTick = %d, want %d", state.NextRoundTick, want)
	}

	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, want-1, state, nil)
	if state.Game.State.Round.Number != 1 {
		t.Fatalf("next round dealt before the break ended")
	}
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, want, state, nil)
	if state.Game.State.Round.Number != 2 {
		t.Fatalf("round = %d, want 2", state.Game.State.Round.Number)
	}
	if len(dispatcher.byOpCode(OpRoundStarted)) != 1 {
		t.Fatalf("round_started not broadcast")
	}
}

func TestGameEnd_SettlesHumansOnly(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1")
	economy := &mockEconomy{}
	state.Economy = economy
	botID := bot.GetBotIdentity(1).UserID
	state.Seats[1] = botID

	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")
	if state.Bots[botID] == nil {
		t.Fatalf("no agent for seated bot")
	}
	caller, _ := rigYaniv(t, state, 95)
	send(handler, state, dispatcher, 2, caller, OpCallYaniv, "")

	if !state.Game.State.Ended {
		t.Fatalf("game should have ended")
	}
	if !state.InLobby() {
		t.Fatalf("table should be back in the lobby")
	}
	if len(dispatcher.byOpCode(OpGameEnded)) != 1 {
		t.Fatalf("game_ended not broadcast")
	}
	if len(economy.updates) != 1 || economy.updates[0].UserID != "user-1" {
		t.Fatalf("wallet updates = %+v, want only user-1", economy.updates)
	}
	want := int64(-100)
	if caller == "user-1" {
		want = 100
	}
	if economy.updates[0].Amount != want {
		t.Fatalf("settlement = %d, want %d", economy.updates[0].Amount, want)
	}
	if !bytes.Contains([]byte(dispatcher.lastLabel), []byte(labelStateLobby)) {
		t.Fatalf("label = %s, want lobby", dispatcher.lastLabel)
	}

	send(handler, state, dispatcher, 3, "user-1", OpPlayAgain, "")
	if state.Game.State.Ended || state.Game.State.Round.Number != 1 {
		t.Fatalf("play again did not start a rematch")
	}
}

func TestLeaveMidGameKeepsSeat(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")

	ctx := context.Background()
	result := handler.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.Presence{testPresence{userID: "user-2"}})
	if result == nil {
		t.Fatalf("match terminated while a human is connected")
	}
	if state.SeatOf("user-2") < 0 || !state.Departed["user-2"] {
		t.Fatalf("departed player's seat was not kept")
	}

	if _, ok, _ := handler.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, testPresence{userID: "user-3"}, nil); ok {
		t.Fatalf("stranger allowed into a running game")
	}
	if _, ok, reason := handler.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, testPresence{userID: "user-2"}, nil); !ok {
		t.Fatalf("player could not rejoin: %s", reason)
	}

	dispatcher.sent = nil
	handler.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.Presence{testPresence{userID: "user-2"}})
	if state.Departed["user-2"] {
		t.Fatalf("rejoined player still marked departed")
	}

	var snapshot *structpb.Struct
	for _, m := range dispatcher.byOpCode(OpMatchState) {
		if m.recipients[0] == "user-2" {
			snapshot = decodeSent(t, m.data)
		}
	}
	if snapshot == nil {
		t.Fatalf("no snapshot sent to the rejoined player")
	}
	for _, v := range snapshot.GetFields()["game"].GetStructValue().GetFields()["players"].GetListValue().GetValues() {
		player := v.GetStructValue().GetFields()
		_, hasHand := player["hand"]
		if mine := player["id"].GetStringValue() == "user-2"; mine != hasHand {
			t.Fatalf("snapshot hand visibility wrong for %s", player["id"].GetStringValue())
		}
	}
}

func TestLeaveLastHumanTerminates(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1")
	result := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{testPresence{userID: "user-1"}})
	if result != nil {
		t.Fatalf("expected match to terminate")
	}
}

func TestBotTakesTurn(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1")
	state.BotsEnabled = true
	state.BotMinDelay = 1
	state.BotMaxDelay = 1
	botID := bot.GetBotIdentity(2).UserID
	state.Seats[1] = botID

	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")
	if state.Game.State.CurrentPlayer().ID != botID {
		// Let the human's turn time out so the bot is up.
		for tick := int64(2); state.Game.State.CurrentPlayer().ID != botID; tick++ {
			handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, tick, state, nil)
			if tick > 100 {
				t.Fatalf("bot never got the turn")
			}
		}
	}

	start := state.Tick
	for tick := start + 1; tick < start+10; tick++ {
		handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, tick, state, nil)
		if state.InLobby() || state.Game.State.Round.Phase == domain.PhaseRoundEnded || state.Game.State.CurrentPlayer().ID != botID {
			return
		}
	}
	t.Fatalf("bot did not finish its turn")
}

func TestStartGame_AppliesRoomOptions(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, `{"yaniv_threshold":5,"elimination_score":200,"slap_down":false,"turn_seconds":30,"max_players":2}`)
	if state.Game == nil {
		t.Fatalf("game did not start: %+v", dispatcher.byOpCode(OpError))
	}

	rules := state.Game.State.Rules
	if rules.YanivThreshold != 5 || rules.EliminationScore != 200 || rules.SlapDown || rules.MaxPlayers != 2 {
		t.Fatalf("game rules = %+v", rules)
	}
	if len(state.Seats) != 2 {
		t.Fatalf("seats = %v, want a table for two", state.Seats)
	}
	if want := int64(30 + gameStartTurnTimerBonusSeconds); state.TurnSecondsRemaining != want {
		t.Fatalf("TurnSecondsRemaining = %d, want %d", state.TurnSecondsRemaining, want)
	}
	started := dispatcher.byOpCode(OpGameStarted)
	if len(started) != 1 {
		t.Fatalf("game_started = %d, want 1", len(started))
	}
	wire := decodeSent(t, started[0].data).GetFields()["rules"].GetStructValue().GetFields()
	if wire["yaniv_threshold"].GetNumberValue() != 5 || wire["slap_down"].GetBoolValue() {
		t.Fatalf("wire rules = %v", wire)
	}
}

func TestStartGame_RejectsInvalidRoomOptions(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, `{"yaniv_threshold":4}`)
	if state.Game != nil {
		t.Fatalf("game started with an unoffered threshold")
	}
	errs := dispatcher.byOpCode(OpError)
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(errs))
	}
	fields := decodeSent(t, errs[0].data).GetFields()
	if fields["reason"].GetStringValue() != "invalid_rules" || fields["code"].GetNumberValue() != errCodeBadRequest {
		t.Fatalf("error = %v, want invalid_rules/%d", fields, errCodeBadRequest)
	}
	if state.rules().YanivThreshold != testConfig().Rules.YanivThreshold {
		t.Fatalf("rejected options changed the room rules")
	}
}

// rigSlapDown gives the current player 7S KD 2C and puts 7H on top of the deck.
func rigSlapDown(t *testing.T, state *MatchState) string {
	t.Helper()
	current := state.Game.State.CurrentPlayer().ID
	hand, err := domain.ParseCards("7S KD 2C")
	if err != nil {
		t.Fatalf("ParseCards: %v", err)
	}
	for i := range state.Game.State.Players {
		if state.Game.State.Players[i].ID == current {
			state.Game.State.Players[i].Hand = hand
		}
	}
	deck := state.Game.State.Round.Deck
	deck[len(deck)-1] = domain.Card{Rank: 7, Suit: domain.SuitHearts}
	return current
}

func TestSlapDownIntent(t *testing.T) {
	handler, state, dispatcher := newTestMatch(t, "user-1", "user-2")
	send(handler, state, dispatcher, 1, "user-1", OpStartGame, "")
	current := rigSlapDown(t, state)
	other := "user-1"
	if current == other {
		other = "user-2"
	}

	send(handler, state, dispatcher, 2, current, OpDraw, `{"source":"deck"}`)
	send(handler, state, dispatcher, 3, current, OpDiscard, `{"cards":["7S"]}`)
	discarded := dispatcher.byOpCode(OpCardsDiscarded)
	if len(discarded) != 1 || decodeSent(t, discarded[0].data).GetFields()["slap_down_for"].GetStringValue() != current {
		t.Fatalf("cards_discarded should offer the slap-down to %s", current)
	}

	send(handler, state, dispatcher, 4, other, OpSlapDown, `{"card":"7H"}`)
	errs := dispatcher.byOpCode(OpError)
	if len(errs) != 1 || decodeSent(t, errs[0].data).GetFields()["reason"].GetStringValue() != "no_slap_down" {
		t.Fatalf("slap-down by the wrong player was not rejected: %+v", errs)
	}

	send(handler, state, dispatcher, 5, current, OpSlapDown, `{"card":"7H"}`)
	slapped := dispatcher.byOpCode(OpCardSlapped)
	if len(slapped) != 1 || len(slapped[0].recipients) != 0 {
		t.Fatalf("card_slapped should be broadcast once, got %+v", slapped)
	}
	top, _ := state.Game.State.TopDiscard()
	if len(top.Combination.Cards) != 2 || top.Combination.Type != domain.Set {
		t.Fatalf("top discard = %+v, want the 7s as a set", top.Combination)
	}
	p, _ := state.Game.State.Player(current)
	if len(p.Hand) != 2 {
		t.Fatalf("hand = %v, want two cards left", p.Hand)
	}
	if state.Game.State.CurrentPlayer().ID != other {
		t.Fatalf("slap-down changed the turn")
	}

	send(handler, state, dispatcher, 6, current, OpSlapDown, `{"card":"7H"}`)
	if len(dispatcher.byOpCode(OpCardSlapped)) != 1 {
		t.Fatalf("second slap-down accepted")
	}
}
