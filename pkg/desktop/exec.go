package desktop

import (
	"fmt"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// RunDetached starts argv as a separate process and reaps it in the background.
// It returns once the process has started.
func RunDetached(argv []string) error {
	if len(argv) == 0 {
		return ErrUnsupported
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warnf("%s exited: %v", argv[0], err)
		}
	}()
	return nil
}
