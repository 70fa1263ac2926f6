package clamav

import (
	"regexp"
	"strings"
)

// exit codes of clamscan
const (
	exitClean    = 0
	exitInfected = 1
)

// "ClamAV 1.5.1/27805/Mon Oct 27 09:50:30 2025"
var databaseDatePattern = regexp.MustCompile(`ClamAV \d+\.\d+\.\d+/\d+/([A-Za-z]{3} [A-Za-z]{3}\s+\d+\s+\d+:\d+:\d+ \d{4})`)

// parseResult interprets clamscan output for path. Exit codes above 1 are
// scanner failures, not verdicts.
func parseResult(path string, output []byte, exitCode int, version string) (Result, error) {
	result := Result{
		Path:         path,
		Clean:        exitCode == exitClean,
		Engine:       version,
		DatabaseDate: extractDatabaseDate(version),
	}

	switch exitCode {
	case exitClean:
		return result, nil
	case exitInfected:
		result.Threats = extractThreats(string(output))
		if len(result.Threats) == 0 {
			return result, ErrNoThreatsInOutput
		}
		return result, nil
	default:
		return result, &ScanError{ExitCode: exitCode, Output: lastLine(string(output))}
	}
}

// extractThreats collects signature names from "<path>: <name> FOUND" lines.
// Paths may contain colons, so the split is on the last ": ".
func extractThreats(output string) []string {
	var threats []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasSuffix(line, " FOUND") {
			continue
		}
		i := strings.LastIndex(line, ": ")
		if i < 0 {
			continue
		}
		name := strings.TrimSpace(strings.TrimSuffix(line[i+2:], " FOUND"))
		if name != "" {
			threats = append(threats, name)
		}
	}
	return threats
}

func extractDatabaseDate(version string) string {
	if m := databaseDatePattern.FindStringSubmatch(version); len(m) >= 2 {
		return m[1]
	}
	return "unknown"
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
