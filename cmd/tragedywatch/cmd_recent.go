package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"TragedyWatch/internal/domain"
)

const titleWidth = 60

var recentFlags struct {
	limit int
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently detected tragedies",
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().IntVar(&recentFlags.limit, "limit", 20, "number of articles to show (max 100)")
}

func runRecent(cmd *cobra.Command, _ []string) error {
	application, _, err := loadApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	articles, total, err := application.Recent(cmd.Context(), recentFlags.limit)
	if err != nil {
		return fmt.Errorf("list recent: %w", err)
	}

	renderArticles(cmd.OutOrStdout(), articles, total)
	return nil
}

func renderArticles(w io.Writer, articles []domain.Article, total int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Detected", "Title", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, WidthMax: titleWidth},
	})
	for _, a := range articles {
		t.AppendRow(table.Row{a.ID, a.DetectedAt.UTC().Format(time.RFC3339), a.Title, a.URL})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d of %d stored", len(articles), total), ""})
	t.Render()
}
