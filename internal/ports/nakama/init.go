package nakama

import (
	"context"
	"database/sql"

	"yaniv/internal/bot"
	"yaniv/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires configuration, bots, RPCs, hooks and the match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	configPath := defaultConfigPath
	if val, ok := env[EnvConfigPath]; ok && val != "" {
		configPath = val
	}
	if err := config.LoadGameConfig(configPath); err != nil {
		logger.Warn("InitModule: Could not load game config from %s, using defaults: %v", configPath, err)
	}

	identitiesPath := defaultBotIdentitiesPath
	if val, ok := env[EnvBotIdentitiesPath]; ok && val != "" {
		identitiesPath = val
	}
	if err := bot.LoadIdentities(identitiesPath); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	} else {
		bot.ProvisionBots(ctx, nk, logger)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameYaniv, NewMatch); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	logger.Info("Yaniv Go module loaded.")
	return nil
}
