package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"

	"github.com/zorak1103/berth/pkg/docker"
)

const shortIDLen = 12

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
}

func shortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// ago renders a unix timestamp relative to now, e.g. "3 hours ago".
func ago(now time.Time, unix int64) string {
	if unix <= 0 {
		return "N/A"
	}
	return units.HumanDuration(now.Sub(time.Unix(unix, 0))) + " ago"
}

func humanSize(size int64) string {
	return units.HumanSizeWithPrecision(float64(size), 3)
}

// formatPorts renders published ports the way "docker ps" does.
func formatPorts(ports []docker.Port) string {
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		switch {
		case p.PublicPort != 0 && p.IP != "":
			parts = append(parts, fmt.Sprintf("%s:%d->%d/%s", p.IP, p.PublicPort, p.PrivatePort, p.Type))
		case p.PublicPort != 0:
			parts = append(parts, fmt.Sprintf("%d->%d/%s", p.PublicPort, p.PrivatePort, p.Type))
		default:
			parts = append(parts, fmt.Sprintf("%d/%s", p.PrivatePort, p.Type))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func containerNames(names []string) string {
	trimmed := make([]string, 0, len(names))
	for _, n := range names {
		trimmed = append(trimmed, strings.TrimPrefix(n, "/"))
	}
	return strings.Join(trimmed, ",")
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

// splitRepoTag splits "repo:tag" while leaving registry ports alone.
func splitRepoTag(ref string) (string, string) {
	if i := strings.LastIndex(ref, ":"); i > strings.LastIndex(ref, "/") {
		return ref[:i], ref[i+1:]
	}
	return ref, "<none>"
}

// parseFilters turns repeated k=v flags into pairs.
func parseFilters(values []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("bad filter %q: expected key=value", v)
		}
		pairs = append(pairs, [2]string{key, value})
	}
	return pairs, nil
}
