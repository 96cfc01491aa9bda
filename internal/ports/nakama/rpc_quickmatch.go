package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"yaniv/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
	Tier    string `json:"tier"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch)
}

// quickMatchQuery builds the match listing query for open Yaniv lobbies of a tier.
func quickMatchQuery(tier string) string {
	query := fmt.Sprintf("+label.%s:>=1 +label.%s:%s +label.%s:%s", MatchLabelKeyOpenSeats, MatchLabelKeyGame, GameName, MatchLabelKeyState, labelStateLobby)
	if tier != "" {
		query += fmt.Sprintf(" +label.%s:%s", MatchLabelKeyTier, tier)
	}
	return query
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	cfg := config.GetGameConfig()
	tier, opts, err := decodeStartRequest([]byte(payload))
	if err != nil {
		return "", err
	}
	if tier == "" {
		tier = cfg.DefaultTier
	}

	// Room options ask for a table of one's own.
	if hasRoomOptions(opts) {
		if _, err := defaultRoomSettings(cfg).withOptions(opts); err != nil {
			return "", err
		}
		params := map[string]interface{}{"tier": tier}
		for k, v := range opts {
			params[k] = v
		}
		matchID, err := nk.MatchCreate(ctx, MatchNameYaniv, params)
		if err != nil {
			logger.Error("QuickMatch: MatchCreate error: %v", err)
			return "", err
		}
		return quickMatchResponse(QuickMatchResponse{MatchID: matchID, IsNew: true, Tier: tier})
	}

	query := quickMatchQuery(tier)

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := cfg.Rules.MaxPlayers - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("QuickMatch: MatchList error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{Tier: tier}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
	} else {
		// Create new match; seat/owner assignment happens in MatchJoin (server-authoritative).
		matchID, err := nk.MatchCreate(ctx, MatchNameYaniv, map[string]interface{}{"tier": tier})
		if err != nil {
			logger.Error("QuickMatch: MatchCreate error: %v", err)
			return "", err
		}
		resp.MatchID = matchID
		resp.IsNew = true
	}

	return quickMatchResponse(resp)
}

func quickMatchResponse(resp QuickMatchResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal quick match response: %w", err)
	}
	return string(b), nil
}
