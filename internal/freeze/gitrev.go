package freeze

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// resolveCommit returns the HEAD commit hash of the repository containing
// dir, or "" when dir is not under source control or git is unavailable.
// Provenance is best-effort: none of these cases is an error.
func resolveCommit(ctx context.Context, dir string) string {
	if _, err := exec.LookPath("git"); err != nil {
		return ""
	}

	// Keep this bounded so a broken git config or slow filesystem doesn't
	// hang the freeze.
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "git", "-C", dir, "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}

	hash := strings.TrimSpace(string(out))
	if !isCommitHash(hash) {
		return ""
	}
	return hash
}

func isCommitHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
