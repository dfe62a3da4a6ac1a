package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/creatorhub/pkg/client"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snapshots"},
		Short:   "Trial-start snapshots",
	}

	cmd.AddCommand(newSnapshotListCmd())
	cmd.AddCommand(newSnapshotActiveCmd())
	cmd.AddCommand(newSnapshotRestoreCmd())

	return cmd
}

func newSnapshotListCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Snapshots().List(context.Background(), &client.ListOptions{
				Page:     page,
				PageSize: pageSize,
			})
			if err != nil {
				return fmt.Errorf("failed to list snapshots: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			table := NewTable("ID", "CAPTURED", "STATUS", "CONSUMED")
			for _, s := range result.Items {
				status := "active"
				if s.IsConsumed {
					status = "consumed"
				}
				captured := s.CapturedAt
				table.AddRow(s.ID, formatTime(&captured), status, formatTime(s.ConsumedAt))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "items per page")

	return cmd
}

func newSnapshotActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the pending snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := apiClient.Snapshots().Active(context.Background())
			if apiErr, ok := client.AsAPIError(err); ok && apiErr.IsNotFound() {
				fmt.Fprintln(stdout, "No active snapshot")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get snapshot: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(s)
			}

			captured := s.CapturedAt
			fmt.Fprintf(stdout, "ID:        %s\n", s.ID)
			fmt.Fprintf(stdout, "Captured:  %s\n", formatTime(&captured))
			fmt.Fprintf(stdout, "Schema:    v%d\n", s.SchemaVersion)
			return nil
		},
	}
}

func newSnapshotRestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Revert content to the pending snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer := promptInput("Current posts and analytics will be replaced. Continue? [y/N]: ")
				if !strings.EqualFold(answer, "y") {
					fmt.Fprintln(stdout, "Aborted")
					return nil
				}
			}

			result, err := apiClient.Snapshots().Restore(context.Background())
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			fmt.Fprintf(stdout, "Restored snapshot %s\n", result.SnapshotID)
			fmt.Fprintf(stdout, "  Posts:     %d restored, %d removed\n", result.RestoredPosts, result.DeletedPosts)
			fmt.Fprintf(stdout, "  Analytics: %d restored, %d removed\n", result.RestoredAnalytics, result.DeletedAnalytics)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
