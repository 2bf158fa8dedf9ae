// Package notification forwards daemon events to external services.
package notification

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"

	"github.com/zorak1103/berth/internal/config"
	"github.com/zorak1103/berth/pkg/docker"
)

// Notifier handles sending notifications via Shoutrrr
type Notifier struct {
	enabled     bool
	shoutrrrURL string
	ignored     config.EventFilter
	send        func(url, message string) error
}

// NewNotifier initializes a Shoutrrr-based notification client from config.
func NewNotifier(cfg *config.Config) (*Notifier, error) {
	if !cfg.Notification.Enabled {
		return &Notifier{enabled: false}, nil
	}

	url := strings.TrimSpace(cfg.Notification.ShoutrrURL)
	if url == "" {
		return &Notifier{enabled: false}, fmt.Errorf("notification enabled but shoutrrr_url not configured: provide URL in format 'service://credentials' (e.g., slack://token@channel, discord://token@webhookid)")
	}

	return &Notifier{
		enabled:     true,
		shoutrrrURL: url,
		ignored:     cfg.IgnoreFilter(),
		send:        shoutrrr.Send,
	}, nil
}

// NotifyEvent delivers one daemon event unless it matches an ignore pattern.
// It reports whether a message was sent.
func (n *Notifier) NotifyEvent(ev docker.Event) (bool, error) {
	if !n.enabled {
		return false, nil // Notifications disabled
	}
	if n.ignored != nil && n.ignored(ev.Type, ev.Action) {
		return false, nil
	}

	if err := n.send(n.shoutrrrURL, FormatEvent(ev)); err != nil {
		// Extract service type from URL (e.g., "slack://..." -> "slack")
		serviceType := "unknown"
		if idx := strings.Index(n.shoutrrrURL, "://"); idx > 0 {
			serviceType = n.shoutrrrURL[:idx]
		}
		return false, fmt.Errorf("notification failed to send via %s (event: %s %s): %w", serviceType, ev.Type, ev.Action, err)
	}
	return true, nil
}

// FormatEvent renders an event as a short multi-line message.
func FormatEvent(ev docker.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🐳 %s %s\n", ev.Type, ev.Action)
	fmt.Fprintf(&sb, "📅 Time: %s\n", ev.When().UTC().Format(time.RFC3339))

	name := ev.Actor.Attributes["name"]
	id := ev.Actor.ID
	if len(id) > 12 {
		id = id[:12]
	}
	switch {
	case name != "" && id != "":
		fmt.Fprintf(&sb, "📦 %s (%s)\n", name, id)
	case id != "":
		fmt.Fprintf(&sb, "📦 %s\n", id)
	}

	keys := make([]string, 0, len(ev.Actor.Attributes))
	for k := range ev.Actor.Attributes {
		if k != "name" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, ev.Actor.Attributes[k])
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// IsEnabled reports whether notifications are configured and active.
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}
