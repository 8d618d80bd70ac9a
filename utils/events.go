package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/analytics-go"
)

const (
	EventLoadStarted  = "load_started"
	EventLoadFinished = "load_finished"
)

// EventTracker sends anonymous usage events. A nil tracker is a no-op so
// callers do not need to check whether telemetry is enabled.
type EventTracker struct {
	client analytics.Client
	userId string
}

// NewEventTracker returns nil unless telemetry is enabled with a write key.
func NewEventTracker(config Telemetry) *EventTracker {
	if !config.Enabled || config.WriteKey == "" {
		return nil
	}

	userId, err := getUserId()
	if err != nil {
		logger.Debug().Str("err", err.Error()).Msg("failed to resolve user id, telemetry disabled")
		return nil
	}

	return &EventTracker{
		client: analytics.New(config.WriteKey),
		userId: userId,
	}
}

func (t *EventTracker) Track(event string, properties map[string]interface{}) {
	if t == nil {
		return
	}

	props := analytics.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}

	if err := t.client.Enqueue(analytics.Track{
		UserId:     t.userId,
		Event:      event,
		Properties: props,
		Context:    getContext(),
	}); err != nil {
		logger.Debug().Str("err", err.Error()).Str("event", event).Msg("failed to enqueue event")
	}
}

func (t *EventTracker) Close() {
	if t == nil {
		return
	}
	_ = t.client.Close()
}

func getContext() *analytics.Context {
	version := "local"
	if build, ok := debug.ReadBuildInfo(); ok && strings.TrimSpace(build.Main.Version) != "" {
		version = strings.TrimSpace(build.Main.Version)
	}

	timezone, _ := time.Now().Zone()
	locale := os.Getenv("LANG")

	return &analytics.Context{
		App: analytics.AppInfo{
			Name:    "csv-dlt",
			Version: version,
		},
		Location: analytics.LocationInfo{},
		OS: analytics.OSInfo{
			Name: fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH),
		},
		Locale:   locale,
		Timezone: timezone,
	}
}

func getUserId() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dltDir := filepath.Join(home, ".csv-dlt")
	if _, err = os.Stat(dltDir); os.IsNotExist(err) {
		if err := os.Mkdir(dltDir, 0o755); err != nil {
			return "", err
		}
	}

	idFile := filepath.Join(dltDir, "id")
	if data, err := os.ReadFile(idFile); err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	userId := uuid.New().String()
	if err := os.WriteFile(idFile, []byte(userId), 0o644); err != nil {
		return "", err
	}
	return userId, nil
}
