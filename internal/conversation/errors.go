package conversation

import "errors"

// Branch name constraints.
const (
	// DefaultBranch is the branch every conversation starts on.
	DefaultBranch = "main"

	// MaxBranchLength is the maximum length for a branch name.
	MaxBranchLength = 256
)

// Sentinel errors checked with errors.Is.
var (
	// ErrInvalidBranch indicates the branch name format is invalid.
	ErrInvalidBranch = errors.New("invalid branch name")

	// ErrBranchTooLong indicates the branch name exceeds MaxBranchLength.
	ErrBranchTooLong = errors.New("branch name too long")

	// ErrNoConversation indicates the store has no conversation selected.
	ErrNoConversation = errors.New("no conversation selected")

	// ErrBusy indicates a send is already in flight.
	ErrBusy = errors.New("a message is already being sent")

	// ErrMessageNotFound indicates the message is not in the local store.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotAssistant indicates regeneration was requested for a message
	// that is not an assistant reply.
	ErrNotAssistant = errors.New("message is not an assistant reply")
)

// NormalizeBranch validates a branch name. Empty defaults to
// DefaultBranch. A valid name starts with a letter and continues with
// letters, digits, underscores or hyphens.
func NormalizeBranch(branch string) (string, error) {
	if branch == "" {
		return DefaultBranch, nil
	}
	if len(branch) > MaxBranchLength {
		return "", ErrBranchTooLong
	}

	first := branch[0]
	if (first < 'a' || first > 'z') && (first < 'A' || first > 'Z') {
		return "", ErrInvalidBranch
	}
	for i := 1; i < len(branch); i++ {
		c := branch[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' && c != '-' {
			return "", ErrInvalidBranch
		}
	}
	return branch, nil
}
