// Package conversation holds the branch-aware message store for a single
// chat.
//
// All messages of a conversation, across every branch, live in one flat
// slice; a branch is nothing more than a filter over it. Switching branch
// therefore never refetches and never mutates anything, and the parent of
// the next message is always computed in one place: the last message of
// the currently filtered view. Forking asks the backend to copy an edited
// message onto a new branch, leaving the original branch untouched.
//
// Layout projects the cross-branch message tree onto lanes for
// visualization, deterministically, so two renders of the same tree agree.
package conversation
