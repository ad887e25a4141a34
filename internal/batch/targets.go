package batch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"positionScope/internal/chain"
)

// Target is one position listed in a batch input file.
type Target struct {
	Line       int
	PositionID string
	ChainID    uint64
}

// ParseTargets reads one position per line. A line is either "<id>" or
// "<chain>:<id>", where chain is a chain id or a registry name such as "base".
// Blank lines and text after '#' are ignored.
func ParseTargets(r io.Reader, defaultChain uint64) ([]Target, error) {
	var targets []Target
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if idx := strings.IndexByte(text, '#'); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		target := Target{Line: line, PositionID: text, ChainID: defaultChain}
		if prefix, id, ok := strings.Cut(text, ":"); ok {
			chainID, err := parseChain(strings.TrimSpace(prefix))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			target.ChainID = chainID
			target.PositionID = strings.TrimSpace(id)
		}
		if target.PositionID == "" {
			return nil, fmt.Errorf("line %d: missing position id", line)
		}
		targets = append(targets, target)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return targets, nil
}

func parseChain(s string) (uint64, error) {
	if id, err := strconv.ParseUint(s, 10, 64); err == nil {
		return id, nil
	}
	for _, c := range chain.DefaultChains {
		if strings.EqualFold(c.Name, s) {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown chain %q", s)
}
