package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/pisda/internal/core/events"
	"github.com/frahmantamala/pisda/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Inspect the audit events",
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the event types written to the audit log",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.AuditedEventTypes {
			fmt.Println(t)
		}
	},
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample event through the audit handler",
	Long:      `Publish a sample event so the audit log output can be checked without a running server`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: events.AuditedEventTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var eventData string

func publishTestEvent(eventType string) error {
	log := logger.LoggerWrapper()

	bus := events.NewEventBus(log)
	bus.Subscribe(events.AllEvents, events.AuditLogger(log))

	testEvent := events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	if err := bus.PublishSync(context.Background(), testEvent); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	log.Info("test event published", "event_type", eventType, "event_id", testEvent.ID)
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(listEventsCmd)
	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
