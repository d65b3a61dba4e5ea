package app

import (
	"context"
	"fmt"

	"mindmaster/internal/devtools"
	"mindmaster/internal/hint"
	"mindmaster/internal/levels"
	"mindmaster/internal/progress"
	"mindmaster/internal/telemetry"
)

// AskOracleOnce asks the configured oracle backend about one level without a
// game session, so nothing is charged. It returns the answer and where the
// backend came from (config, env, keyring, offline or mock).
func AskOracleOnce(ctx context.Context, cfg Config, levelID int) (hint.Answer, string, error) {
	cat, err := levels.NewLoader().Load(ctx, cfg.CatalogPath)
	if err != nil {
		return hint.Answer{}, "", err
	}
	lvl, ok := cat.Level(levelID)
	if !ok {
		return hint.Answer{}, "", fmt.Errorf("level %d: %w", levelID, progress.ErrUnknownLevel)
	}
	logger, err := telemetry.NewJSONLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		return hint.Answer{}, "", fmt.Errorf("open log: %w", err)
	}
	defer logger.Close()

	req, source := resolveRequester(cfg, hint.NewKeyStore(hint.KeyringService), devtools.NewManager(), logger)
	ans, _ := hint.NewOracle(req, cfg.Hint.Timeout, logger).AskSync(ctx, lvl.Question, lvl.ContextLabel())
	return ans, source, nil
}
