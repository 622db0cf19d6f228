// Package credential prepares the deploy key used to push to the publish
// repository. It fails closed: a key that cannot be read or cannot be
// restricted to owner-only access is never used, and the failure happens
// before any contact with the remote.
package credential

import (
	"fmt"
	"os"
)

// Error is a credential failure with an operator-facing hint.
type Error struct {
	Path string
	Err  error
	Hint string
}

func (e *Error) Error() string {
	s := fmt.Sprintf("deploy credential %s: %v", e.Path, e.Err)
	if e.Hint != "" {
		s += " (" + e.Hint + ")"
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// statKey is swapped in tests to simulate filesystems that accept chmod
// but do not honor it.
var statKey = os.Stat

// Env validates the deploy key at keyPath, tightens it to owner-only
// access, and returns the environment additions for git operations against
// the publish repository. An empty keyPath returns no additions; the
// ambient git credentials (agent, credential helper) are used instead.
func Env(keyPath string) ([]string, error) {
	if keyPath == "" {
		return nil, nil
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		return nil, &Error{Path: keyPath, Err: err, Hint: "check the CI secret mount"}
	}
	if info.IsDir() {
		return nil, &Error{Path: keyPath, Err: fmt.Errorf("is a directory, expected a key file")}
	}

	if err := os.Chmod(keyPath, 0600); err != nil {
		return nil, &Error{Path: keyPath, Err: fmt.Errorf("restricting permissions: %w", err)}
	}

	// Re-stat and verify: chmod succeeding is not the same as the key
	// actually being owner-only (e.g. on permission-less mounts).
	info, err = statKey(keyPath)
	if err != nil {
		return nil, &Error{Path: keyPath, Err: err}
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		return nil, &Error{
			Path: keyPath,
			Err:  fmt.Errorf("key remains group/world accessible (mode %04o)", mode),
			Hint: "the filesystem must support owner-only permissions",
		}
	}

	// Verify readability before git trips over it mid-clone.
	f, err := os.Open(keyPath)
	if err != nil {
		return nil, &Error{Path: keyPath, Err: fmt.Errorf("key unreadable: %w", err)}
	}
	_ = f.Close()

	sshCommand := fmt.Sprintf("ssh -i %s -o IdentitiesOnly=yes -o StrictHostKeyChecking=accept-new", keyPath)
	return []string{"GIT_SSH_COMMAND=" + sshCommand}, nil
}
