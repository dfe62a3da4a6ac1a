package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pratik-mahalle/creatorhub/pkg/client"
)

func newPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "post",
		Aliases: []string{"posts"},
		Short:   "Manage content posts",
	}

	cmd.AddCommand(newPostListCmd())
	cmd.AddCommand(newPostGetCmd())
	cmd.AddCommand(newPostCreateCmd())
	cmd.AddCommand(newPostEditCmd())
	cmd.AddCommand(newPostDeleteCmd())

	return cmd
}

func newPostListCmd() *cobra.Command {
	var platform, status string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Posts().List(context.Background(), &client.PostListOptions{
				ListOptions: client.ListOptions{Page: page, PageSize: pageSize},
				Platform:    platform,
				Status:      status,
			})
			if err != nil {
				return fmt.Errorf("failed to list posts: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			table := NewTable("ID", "PLATFORM", "STATUS", "BODY", "CREATED", "LOCK")
			for _, p := range result.Items {
				created := p.CreatedAt
				table.AddRow(
					p.ID,
					p.Platform,
					formatState(p.Status),
					truncate(p.Body, 40),
					formatTime(&created),
					formatLock(p.Locked),
				)
			}
			table.Render()
			fmt.Fprintf(stdout, "\nPage %d of %d (%d posts)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "filter by platform")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (draft, scheduled, published)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "items per page")

	return cmd
}

func newPostGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Posts().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get post: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(p)
			}

			fmt.Fprintf(stdout, "ID:        %s\n", p.ID)
			fmt.Fprintf(stdout, "Platform:  %s\n", p.Platform)
			fmt.Fprintf(stdout, "Status:    %s\n", formatState(p.Status))
			if p.ScheduledAt != nil {
				fmt.Fprintf(stdout, "Scheduled: %s\n", formatTime(p.ScheduledAt))
			}
			if p.PublishedAt != nil {
				fmt.Fprintf(stdout, "Published: %s\n", formatTime(p.PublishedAt))
			}
			fmt.Fprintf(stdout, "Engagement: %d likes, %d comments, %d shares\n", p.Likes, p.Comments, p.Shares)
			if p.Locked {
				fmt.Fprintln(stdout, "Locked:    read-only until you subscribe")
			}
			fmt.Fprintf(stdout, "\n%s\n", p.Body)
			return nil
		},
	}
}

func newPostCreateCmd() *cobra.Command {
	var platform, body, mediaRef, status, scheduleAt string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := platform
			if target == "" {
				target = viper.GetString("default_platform")
			}
			if target == "" {
				return fmt.Errorf("--platform is required (or set default_platform)")
			}

			req := client.CreatePostRequest{
				Platform: target,
				Body:     body,
				Status:   status,
			}
			if mediaRef != "" {
				req.MediaRef = &mediaRef
			}
			if scheduleAt != "" {
				t, err := time.Parse(time.RFC3339, scheduleAt)
				if err != nil {
					return fmt.Errorf("invalid --schedule-at, expected RFC3339: %w", err)
				}
				req.ScheduledAt = &t
			}

			p, err := apiClient.Posts().Create(context.Background(), req)
			if apiErr, ok := client.AsAPIError(err); ok && apiErr.IsQuotaExceeded() {
				return fmt.Errorf("monthly post limit reached: %s", apiErr.Message)
			}
			if err != nil {
				return fmt.Errorf("failed to create post: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(p)
			}
			fmt.Fprintf(stdout, "Created post %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "target platform (defaults to default_platform)")
	cmd.Flags().StringVar(&body, "body", "", "post text (required)")
	cmd.Flags().StringVar(&mediaRef, "media", "", "media reference")
	cmd.Flags().StringVar(&status, "status", "", "draft, scheduled or published")
	cmd.Flags().StringVar(&scheduleAt, "schedule-at", "", "publish time (RFC3339)")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func newPostEditCmd() *cobra.Command {
	var body, status string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.UpdatePostRequest
			if cmd.Flags().Changed("body") {
				req.Body = &body
			}
			if cmd.Flags().Changed("status") {
				req.Status = &status
			}

			p, err := apiClient.Posts().Update(context.Background(), args[0], req)
			if apiErr, ok := client.AsAPIError(err); ok && apiErr.IsForbidden() {
				return fmt.Errorf("post %s is locked: subscribe to edit trial content", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to update post: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(p)
			}
			fmt.Fprintf(stdout, "Updated post %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "new post text")
	cmd.Flags().StringVar(&status, "status", "", "new status")

	return cmd
}

func newPostDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := apiClient.Posts().Delete(context.Background(), args[0])
			if apiErr, ok := client.AsAPIError(err); ok && apiErr.IsForbidden() {
				return fmt.Errorf("post %s is locked: subscribe to delete trial content", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to delete post: %w", err)
			}
			fmt.Fprintf(stdout, "Deleted post %s\n", args[0])
			return nil
		},
	}
}
