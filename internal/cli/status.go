package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/creatorhub/pkg/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show subscription and content summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			info, err := apiClient.Billing().Info(ctx)
			if err != nil {
				return fmt.Errorf("failed to get billing info: %w", err)
			}
			posts, postsErr := apiClient.Posts().List(ctx, &client.PostListOptions{
				ListOptions: client.ListOptions{PageSize: 100},
			})

			if getOutputFormat() != "table" {
				summary := map[string]interface{}{
					"billing": info,
				}
				if postsErr == nil {
					summary["posts"] = posts.TotalItems
					summary["locked"] = countLocked(posts.Items)
				}
				return printOutput(summary)
			}

			fmt.Fprintln(stdout, "CreatorHub Status")
			fmt.Fprintln(stdout, strings.Repeat("=", 40))

			fmt.Fprintf(stdout, "  Subscription:  %s\n", formatState(info.State))
			if info.Plan != nil {
				fmt.Fprintf(stdout, "  Plan:          %s\n", info.Plan.Name)
			}
			if info.State == "trialing" {
				fmt.Fprintf(stdout, "  Trial ends:    %s (%d days left)\n", formatTime(info.TrialEndsAt), info.DaysRemaining)
			}
			if info.MonthlyContentLimit != nil {
				fmt.Fprintf(stdout, "  Monthly limit: %d posts\n", *info.MonthlyContentLimit)
			} else {
				fmt.Fprintln(stdout, "  Monthly limit: unlimited")
			}
			if info.HasActiveSnapshot {
				fmt.Fprintln(stdout, "  Snapshot:      pending restore on cancel")
			}

			if postsErr != nil {
				fmt.Fprintf(stdout, "  Posts:         (error: %v)\n", postsErr)
			} else {
				fmt.Fprintf(stdout, "  Posts:         %d", posts.TotalItems)
				if locked := countLocked(posts.Items); locked > 0 {
					fmt.Fprintf(stdout, " (%d locked)", locked)
				}
				fmt.Fprintln(stdout)
			}

			return nil
		},
	}
}

func countLocked(posts []client.Post) int {
	n := 0
	for _, p := range posts {
		if p.Locked {
			n++
		}
	}
	return n
}
