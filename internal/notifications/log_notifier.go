package notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the only provider wired today; it writes the welcome event
// to the process log. A real mail provider slots in behind the same interface.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendWelcome(ctx context.Context, in SendWelcomeInput) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	log.Printf("notification.welcome email=%s name=%s user=%s",
		in.Email, in.Name, in.UserID,
	)
	return nil
}
