package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/itsmostafa/irisdash/internal/assistant"
	"github.com/itsmostafa/irisdash/internal/oracle"
	"github.com/itsmostafa/irisdash/internal/present"
	"github.com/itsmostafa/irisdash/internal/sandbox"
)

// newAssistant wires the configured oracle and execution engine.
func newAssistant(ctx context.Context) (*assistant.Assistant, error) {
	engine, err := sandbox.New(cfg.Engine, cfg.Sandbox())
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	o, err := newOracle(ctx, engine.Language())
	if err != nil {
		return nil, err
	}
	return assistant.New(o, engine), nil
}

func newOracle(ctx context.Context, lang string) (oracle.Oracle, error) {
	if cfg.Mock {
		logger.Info("using offline mock oracle", "language", lang)
		return oracle.NewMock(lang), nil
	}

	key, err := cfg.LoadAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load api key (set GEMINI_API_KEY, write %s, or use --mock): %w", cfg.APIKeyFile, err)
	}
	g, err := oracle.NewGemini(ctx, cfg.Gemini(key))
	if err != nil {
		return nil, err
	}
	logger.Info("using gemini oracle", "model", g.Model(), "language", lang)
	return g, nil
}

func newTerminal(w io.Writer, lang string) *present.Terminal {
	return present.NewTerminal(w, present.Options{Language: lang, Style: cfg.Style})
}
