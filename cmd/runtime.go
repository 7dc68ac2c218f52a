package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/config"
	"github.com/synapsbranch/synapse/internal/conversation"
	"github.com/synapsbranch/synapse/internal/log"
)

// runtime bundles the dependencies every command needs: validated
// configuration, a structured logger writing to stderr and an API client
// for the backend. Stdout stays reserved for command output.
type runtime struct {
	cfg    *config.Config
	logger log.Logger
	client *api.Client
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	client := api.New(api.Config{
		BaseURL: cfg.ServerURL,
		Token:   cfg.Token,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})

	return &runtime{cfg: cfg, logger: logger, client: client}, nil
}

// currentSelection returns the remembered conversation and branch,
// creating a standalone conversation when none is remembered or the
// remembered one no longer exists on the backend.
func (rt *runtime) currentSelection(ctx context.Context) (conversation.Selection, error) {
	sel, err := conversation.LoadSelection()
	if err != nil {
		return conversation.Selection{}, fmt.Errorf("loading conversation state: %w", err)
	}

	if sel != nil {
		if _, err := rt.client.ListMessages(ctx, sel.ConversationID); err == nil {
			return *sel, nil
		} else if !errors.Is(err, api.ErrNotFound) {
			return conversation.Selection{}, fmt.Errorf("validating conversation: %w", err)
		}
		rt.logger.Warn("remembered conversation no longer exists, creating a new one",
			"conversation_id", sel.ConversationID)
	}

	conv, err := rt.client.CreateConversation(ctx, "", "New conversation")
	if err != nil {
		return conversation.Selection{}, fmt.Errorf("creating conversation: %w", err)
	}

	next := conversation.Selection{ConversationID: conv.ID, Branch: rt.cfg.Branch}
	if err := conversation.SaveSelection(next); err != nil {
		rt.logger.Warn("failed to save conversation state", "error", err)
	}
	return next, nil
}
