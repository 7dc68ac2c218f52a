package conversation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	stateDir  = ".synapse"
	stateFile = "current_conversation"
)

// Selection is the conversation and branch the user last worked on,
// remembered across runs.
type Selection struct {
	ConversationID string
	Branch         string
}

// StateFilePath returns the path to ~/.synapse/current_conversation,
// creating the state directory if needed.
func StateFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, stateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return filepath.Join(dir, stateFile), nil
}

// LoadSelection reads the remembered selection. A missing or empty state
// file returns (nil, nil): having no current conversation is not an
// error.
func LoadSelection() (*Selection, error) {
	path, err := StateFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}

	// First line is the conversation ID, optional second line the branch.
	id, branchLine, _ := strings.Cut(text, "\n")
	branch, err := NormalizeBranch(strings.TrimSpace(branchLine))
	if err != nil {
		return nil, fmt.Errorf("invalid branch in state file: %w", err)
	}
	return &Selection{
		ConversationID: strings.TrimSpace(id),
		Branch:         branch,
	}, nil
}

// SaveSelection writes the selection to the state file.
func SaveSelection(sel Selection) error {
	path, err := StateFilePath()
	if err != nil {
		return err
	}

	branch, err := NormalizeBranch(sel.Branch)
	if err != nil {
		return err
	}

	content := sel.ConversationID + "\n" + branch + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// ClearSelection removes the state file. Idempotent.
func ClearSelection() error {
	path, err := StateFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}
