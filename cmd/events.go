/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jjudge-oj/usersapi/config"
	"github.com/jjudge-oj/usersapi/internal/events"
	"github.com/jjudge-oj/usersapi/internal/mq"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect user lifecycle events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print user events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		channel, _ := cmd.Flags().GetString("channel")
		if channel == "" {
			channel = cfg.MQ.EventsChannel
		}

		queue, err := mq.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("events tail requires MQ_BACKEND to be set")
		}
		defer queue.Close()

		out := cmd.OutOrStdout()
		err = queue.Subscribe(cmd.Context(), channel, func(ctx context.Context, msg mq.Message) error {
			ev, err := events.Decode(msg)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping message %s: %v\n", msg.ID, err)
				return nil
			}
			_, err = fmt.Fprintf(out, "%s\t%s\tuser=%d\t%s\n",
				ev.OccurredAt.Format(time.RFC3339), ev.Type, ev.User.ID, ev.User.Email)
			return err
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)

	eventsTailCmd.Flags().String("channel", "", "channel to read (defaults to USERS_EVENTS_CHANNEL)")
}
