package conversation

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeBranch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		branch  string
		want    string
		wantErr error
	}{
		{name: "empty defaults to main", branch: "", want: "main"},
		{name: "simple", branch: "main", want: "main"},
		{name: "hyphenated", branch: "alt-1", want: "alt-1"},
		{name: "underscored", branch: "my_branch", want: "my_branch"},
		{name: "mixed case", branch: "Feature2", want: "Feature2"},
		{name: "leading digit", branch: "1branch", wantErr: ErrInvalidBranch},
		{name: "leading hyphen", branch: "-alt", wantErr: ErrInvalidBranch},
		{name: "space", branch: "alt branch", wantErr: ErrInvalidBranch},
		{name: "dot", branch: "alt.sub", wantErr: ErrInvalidBranch},
		{name: "too long", branch: "b" + strings.Repeat("x", MaxBranchLength), wantErr: ErrBranchTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeBranch(tt.branch)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
