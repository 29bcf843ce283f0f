// Package notify posts local goal-reached notifications.
package notify

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"dailyweight/internal/domain"
	"dailyweight/internal/metrics"
)

const (
	// ChannelID is the single channel goal notifications are posted on.
	ChannelID = "goal_channel"
	// ChannelName is the user-visible channel name.
	ChannelName = "Goal Notifications"
	// GoalNotificationID is fixed so a new goal notification replaces the
	// pending one.
	GoalNotificationID = 1001
)

// Priority mirrors the channel importance levels.
type Priority string

// Priorities used by the dispatcher.
const (
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
)

// Channel describes a notification channel.
type Channel struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Importance Priority `json:"importance"`
}

// GoalChannel is registered with default importance.
func GoalChannel() Channel {
	return Channel{ID: ChannelID, Name: ChannelName, Importance: PriorityDefault}
}

// Notification is a posted, not yet dismissed notification.
type Notification struct {
	ID         int       `json:"id"`
	Channel    string    `json:"channel"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	Priority   Priority  `json:"priority"`
	AutoCancel bool      `json:"autoCancel"`
	PostedAt   time.Time `json:"postedAt"`
}

// Dispatcher keeps the set of pending notifications. Posting requires the
// runtime permission; without it posts are skipped silently.
type Dispatcher struct {
	mu      sync.Mutex
	granted bool
	pending map[int]Notification

	now func() time.Time
	log *slog.Logger
}

var _ domain.Notifier = (*Dispatcher)(nil)

// New creates a dispatcher with the given permission state.
func New(granted bool, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		granted: granted,
		pending: make(map[int]Notification),
		now:     time.Now,
		log:     logger,
	}
}

// SetPermission records the outcome of a permission request.
func (d *Dispatcher) SetPermission(granted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.granted = granted
}

// Permission reports whether posting is allowed.
func (d *Dispatcher) Permission() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.granted
}

// NotifyGoalReached posts the goal-reached notification, replacing any
// pending one.
func (d *Dispatcher) NotifyGoalReached(ctx context.Context, goalWeight float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.granted {
		d.log.Debug("notification permission not granted, skipping goal notification")
		metrics.RecordGoalNotification("denied")
		return nil
	}
	d.pending[GoalNotificationID] = Notification{
		ID:         GoalNotificationID,
		Channel:    ChannelID,
		Title:      "Goal Reached!",
		Text:       "Congratulations! You reached your goal weight of " + formatGoal(goalWeight) + ".",
		Priority:   PriorityHigh,
		AutoCancel: true,
		PostedAt:   d.now(),
	}
	d.log.Info("goal notification posted", "goal_weight", goalWeight)
	metrics.RecordGoalNotification("posted")
	return nil
}

// Pending lists posted notifications ordered by id.
func (d *Dispatcher) Pending() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Notification, 0, len(d.pending))
	for _, n := range d.pending {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dismiss removes a notification, as tapping an auto-cancel notification
// does. It reports whether one was pending.
func (d *Dispatcher) Dismiss(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[id]; !ok {
		return false
	}
	delete(d.pending, id)
	return true
}

// formatGoal keeps at least one decimal place: 180 -> "180.0", 185.25 -> "185.25".
func formatGoal(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
