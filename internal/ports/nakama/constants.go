package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// MatchNameYaniv is the authoritative match handler name registered with Nakama.
	MatchNameYaniv = "yaniv_match"

	// GameName is stored in the match label so quick match only finds Yaniv tables.
	GameName = "yaniv"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpDraw      int64 = 2
	OpDiscard   int64 = 3
	OpCallYaniv int64 = 4
	OpNextRound int64 = 5
	OpPlayAgain int64 = 6
	OpSlapDown  int64 = 7

	// Server -> Client events
	OpMatchState     int64 = 100
	OpGameStarted    int64 = 101
	OpHandDealt      int64 = 102 // send privately
	OpCardDrawn      int64 = 103
	OpCardsDiscarded int64 = 104
	OpRoundEnded     int64 = 105
	OpGameEnded      int64 = 106
	OpRoundStarted   int64 = 107
	OpHandUpdated    int64 = 108 // send privately
	OpCardSlapped    int64 = 109
	OpError          int64 = 110
)

// Match label keys.
const (
	MatchLabelKeyOpenSeats = "open"
	MatchLabelKeyGame      = "game"
	MatchLabelKeyState     = "state"
	MatchLabelKeyTier      = "tier"

	labelStateLobby   = "lobby"
	labelStatePlaying = "playing"
)

// Runtime environment keys (Nakama runtime.env).
const (
	EnvBotsEnabled       = "yaniv_bots_enabled"
	EnvBotMinDelay       = "yaniv_bot_min_delay_sec"
	EnvBotMaxDelay       = "yaniv_bot_max_delay_sec"
	EnvBotAutoFillDelay  = "yaniv_bot_auto_fill_delay_sec"
	EnvConfigPath        = "yaniv_config_path"
	EnvBotIdentitiesPath = "yaniv_bot_identities_path"
)

const (
	defaultConfigPath        = "data/game_config.json"
	defaultBotIdentitiesPath = "data/bot_identities.json"

	// gameStartTurnTimerBonusSeconds gives players time to look at their first hand.
	gameStartTurnTimerBonusSeconds = 3

	// Currency used for wallets and settlement.
	walletCurrency = "chips"

	// botMinimumBalance is the stake a bot is topped up to before it sits down.
	botMinimumBalance = 100000
)

// Error codes sent with OpError.
const (
	errCodeBadRequest = 400
	errCodeForbidden  = 403
	errCodeRejected   = 409
)
