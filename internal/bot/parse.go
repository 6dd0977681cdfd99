package bot

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultLogLimit = 10
	maxLogLimit     = 50
)

// ParseSourceArg extracts a source identifier from command arguments.
func ParseSourceArg(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return "", fmt.Errorf("exactly one source is required")
	}
	return fields[0], nil
}

// ParseKeywordArg extracts a keyword or phrase from command arguments.
func ParseKeywordArg(args string) (string, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", fmt.Errorf("keyword is required")
	}
	return s, nil
}

// ParseSwitchArg parses on/off style arguments.
func ParseSwitchArg(args string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", args)
}

// ParseLimitArg parses the optional entry count of /log.
func ParseLimitArg(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return defaultLogLimit, nil
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || n < 1 || n > maxLogLimit {
		return 0, fmt.Errorf("count must be between 1 and %d", maxLogLimit)
	}
	return n, nil
}
