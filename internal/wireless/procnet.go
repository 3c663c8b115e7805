package wireless

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// DefaultProcPath is the kernel's wireless statistics file.
const DefaultProcPath = "/proc/net/wireless"

// ProcNet reads the signal level of a local interface from /proc/net/wireless.
type ProcNet struct {
	// Path defaults to DefaultProcPath.
	Path string

	// Interface selects the row; empty means the first interface listed.
	Interface string
}

// RSSI opens the statistics file and returns the interface's signal level.
func (p ProcNet) RSSI(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path := p.Path
	if path == "" {
		path = DefaultProcPath
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return parseProcWireless(f, p.Interface)
}

// parseProcWireless extracts the level column for iface. The file has two
// header lines followed by one row per interface:
//
//	wlan0: 0000   54.  -56.  -256        0      0      0      0     12        0
func parseProcWireless(r io.Reader, iface string) (int, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || strings.ContainsAny(name, " |") {
			continue
		}
		if iface != "" && name != iface {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < 3 {
			return 0, fmt.Errorf("%w: short row for %s", ErrBadPayload, name)
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], "."), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: level %q for %s", ErrBadPayload, fields[2], name)
		}
		return int(math.Round(level)), nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading wireless stats: %w", err)
	}
	if iface == "" {
		return 0, fmt.Errorf("%w: no wireless interfaces", ErrInterfaceNotFound)
	}
	return 0, fmt.Errorf("%w: %s", ErrInterfaceNotFound, iface)
}
