package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// BotIdentity is one entry of the bot roster.
type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "medium", "hard"
	AvatarIndex int    `json:"avatar_index"`
}

// Level parses the identity's difficulty, defaulting to medium.
func (b BotIdentity) Level() BotLevel {
	level, err := ParseLevel(b.Difficulty)
	if err != nil {
		return BotLevelMedium
	}
	return level
}

type roster struct {
	mu       sync.RWMutex
	list     []BotIdentity
	byUserID map[string]BotIdentity
}

var (
	bots          = &roster{byUserID: make(map[string]BotIdentity)}
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities loads the bot profiles from the given path. Only the first
// call reads the file.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		var list []BotIdentity
		if err := json.Unmarshal(data, &list); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}
		bots.replace(list)
	})
	return loadErr
}

func (r *roster) replace(list []BotIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = list
	r.byUserID = make(map[string]BotIdentity, len(list))
	for _, identity := range list {
		if identity.UserID != "" {
			r.byUserID[identity.UserID] = identity
		}
	}
}

func (r *roster) set(i int, identity BotIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list[i] = identity
	r.byUserID[identity.UserID] = identity
}

// ProvisionBots creates a device account for every bot in the roster and
// tags it with is_bot metadata, recording the Nakama user ids.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) {
	provisionOnce.Do(func() {
		bots.mu.RLock()
		list := append([]BotIdentity(nil), bots.list...)
		bots.mu.RUnlock()

		for i, identity := range list {
			if identity.DeviceID == "" {
				continue
			}
			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("ProvisionBots: Failed to authenticate bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"difficulty":   identity.Level().String(),
				"avatar_index": identity.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("ProvisionBots: Failed to update bot account %s: %v", userID, err)
			}

			bots.set(i, identity)
			logger.Info("ProvisionBots: Bot %s (%s) is ready. Difficulty: %s", identity.DisplayName, userID, identity.Level())
		}
	})
}

// GetBotConfig returns the full identity for a bot user id.
func GetBotConfig(userID string) (BotIdentity, bool) {
	bots.mu.RLock()
	defer bots.mu.RUnlock()
	identity, ok := bots.byUserID[userID]
	return identity, ok
}

// GetBotDisplayName returns the display name for a bot id, falling back to
// the username, or an empty string if not a bot.
func GetBotDisplayName(userID string) string {
	identity, ok := GetBotConfig(userID)
	if !ok {
		return ""
	}
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	return identity.Username
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
func GetBotIdentity(index int) BotIdentity {
	bots.mu.RLock()
	defer bots.mu.RUnlock()
	if len(bots.list) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("bot-%d", index),
			DisplayName: fmt.Sprintf("Bot %d", index),
			Difficulty:  BotLevelMedium.String(),
		}
	}
	return bots.list[index%len(bots.list)]
}

// IsBot reports whether the given user ID belongs to the bot pool.
func IsBot(userID string) bool {
	_, ok := GetBotConfig(userID)
	return ok
}

// GetAllBotIDs returns all known bot user ids in sorted order.
func GetAllBotIDs() []string {
	bots.mu.RLock()
	defer bots.mu.RUnlock()
	ids := make([]string, 0, len(bots.byUserID))
	for id := range bots.byUserID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
