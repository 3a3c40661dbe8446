package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test alert to the push topic",
	RunE:  runNotifyTest,
}

func runNotifyTest(cmd *cobra.Command, _ []string) error {
	application, _, err := loadApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	id, err := application.SendTestNotification(cmd.Context())
	if err != nil {
		return fmt.Errorf("send test notification: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent: %s\n", id)
	return nil
}
