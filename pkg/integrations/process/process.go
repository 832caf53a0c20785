// Package process reads process details from procfs.
package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const procRoot = "/proc"

// Info describes one process.
type Info struct {
	PID     int
	PPID    int
	Name    string // command name from stat, at most 15 bytes
	Cmdline []string
	Exe     string // resolved executable, empty when unreadable
}

// Read returns the details of pid.
func Read(pid int) (Info, error) {
	return readFrom(procRoot, pid)
}

// Available reports whether procfs is mounted.
func Available() bool {
	_, err := os.Stat(procRoot)
	return err == nil
}

// Alive reports whether pid has a procfs entry.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	_, err := os.Stat(filepath.Join(procRoot, strconv.Itoa(pid)))
	return err == nil
}

func readFrom(root string, pid int) (Info, error) {
	info := Info{PID: pid}
	dir := filepath.Join(root, strconv.Itoa(pid))

	statData, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return info, fmt.Errorf("failed to read process %d: %w", pid, err)
	}
	if err := parseStat(string(statData), &info); err != nil {
		return info, fmt.Errorf("process %d: %w", pid, err)
	}

	if cmdData, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
		info.Cmdline = splitCmdline(cmdData)
	}
	if exe, err := os.Readlink(filepath.Join(dir, "exe")); err == nil {
		info.Exe = strings.TrimSuffix(exe, " (deleted)")
	}
	return info, nil
}

// parseStat reads "pid (comm) state ppid ...". comm may contain spaces and
// parentheses, so it ends at the last ')'.
func parseStat(stat string, info *Info) error {
	start := strings.Index(stat, "(")
	end := strings.LastIndex(stat, ")")
	if start == -1 || end < start {
		return fmt.Errorf("malformed stat")
	}
	info.Name = stat[start+1 : end]

	fields := strings.Fields(stat[end+1:])
	if len(fields) < 2 {
		return fmt.Errorf("malformed stat")
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("invalid ppid %q", fields[1])
	}
	info.PPID = ppid
	return nil
}

func splitCmdline(data []byte) []string {
	s := strings.TrimRight(string(data), "\x00")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}
