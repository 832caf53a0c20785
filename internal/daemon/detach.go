package daemon

import (
	"fmt"
	"os"

	godaemon "github.com/sevlyar/go-daemon"
)

// ChildEnvVar marks the detached child process.
const ChildEnvVar = "MIDDRAG_DAEMON_CHILD"

// Detach re-executes the current command in the background. The parent gets the
// child's process; the child gets nil.
func Detach() (*os.Process, error) {
	ctx := &godaemon.Context{
		WorkDir: "/",
		Umask:   027,
		Args:    os.Args,
		Env:     append(os.Environ(), fmt.Sprintf("%s=1", ChildEnvVar)),
	}

	child, err := ctx.Reborn()
	if err != nil {
		return nil, fmt.Errorf("failed to daemonize: %w", err)
	}
	return child, nil
}

// IsChild reports whether this is the detached child.
func IsChild() bool {
	return os.Getenv(ChildEnvVar) == "1"
}
