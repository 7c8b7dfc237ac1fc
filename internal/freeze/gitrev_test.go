package freeze

import "testing"

func TestIsCommitHash(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0123456789abcdef0123456789abcdef01234567", true},
		{"0123456789abcdef0123456789abcdef0123456", false},  // 39 chars
		{"0123456789abcdef0123456789abcdef012345678", false}, // 41 chars
		{"0123456789ABCDEF0123456789abcdef01234567", false},  // upper hex
		{"fatal: not a git repository (or any parent)", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := isCommitHash(tc.in); got != tc.want {
			t.Fatalf("isCommitHash(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
