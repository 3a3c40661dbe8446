package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run one poll routine now and print its report",
	RunE:  runPoll,
}

func runPoll(cmd *cobra.Command, _ []string) error {
	application, _, err := loadApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.PollOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:        %s\n", report.RunID)
	fmt.Fprintf(out, "Stage:      %s\n", report.Stage)
	fmt.Fprintf(out, "Fetched:    %d\n", report.Fetched)
	fmt.Fprintf(out, "Matched:    %d\n", report.Matched)
	fmt.Fprintf(out, "Stored:     %d (duplicates %d, failures %d)\n", report.Created, report.Duplicates, report.StoreFailures)
	fmt.Fprintf(out, "Notify err: %d\n", report.NotifyFailures)
	fmt.Fprintf(out, "Took:       %s\n", report.Duration())
	return nil
}
