package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/sumire/lostfound/internal/app"
	"github.com/sumire/lostfound/internal/config"
	"github.com/sumire/lostfound/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "lostfoundctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lostfoundctl",
		Short: "Lost & found administration CLI",
		Long: `lostfoundctl runs maintenance tasks against the lost & found database:
creating the schema, inspecting matches, re-sending claim notifications and
minting development tokens. It reads the same environment as the server.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newMigrateCmd(),
		newMatchesCmd(),
		newResendCmd(),
		newTokenCmd(),
	)
	return cmd
}

// openStores loads config and connects to Postgres. The memory backend is
// refused since it would only ever see an empty process-local store.
func openStores(ctx context.Context) (config.Config, *app.Stores, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreBackend != config.StorePostgres {
		return config.Config{}, nil, fmt.Errorf("lostfoundctl requires STORE_BACKEND=%s", config.StorePostgres)
	}
	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, stores, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// OpenStores applies the schema on connect
			_, stores, err := openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newMatchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matches <report-id>",
		Short: "Print the current matches for a report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid report id %q: %w", args[0], err)
			}
			cfg, stores, err := openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()

			matches, err := stores.NewReportService(cfg).Matches(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(matches)
		},
	}
}

func newResendCmd() *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "resend <claim-id>",
		Short: "Re-send the owner notification for a claim",
		Long: `resend queues a notification redelivery for the claim. With --now the
notification is created directly instead of going through the worker. Either
way nothing happens if the claim already has a notification.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claimID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid claim id %q: %w", args[0], err)
			}
			cfg, stores, err := openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()

			if now {
				n, err := stores.NewNotificationService().Redeliver(cmd.Context(), claimID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "notification %s for user %d\n", n.ID, n.UserID)
				return nil
			}

			client := asynq.NewClient(queue.RedisOpt(cfg))
			defer client.Close()
			if err := queue.NewClient(client).EnqueueRedelivery(cmd.Context(), claimID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "redelivery queued for claim %s\n", claimID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "Deliver synchronously instead of queueing")
	return cmd
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an access/refresh token pair for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}
			cfg, stores, err := openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()

			auth := app.NewAuthService(stores.Users, cfg)
			if _, err := auth.GetUser(cmd.Context(), userID); err != nil {
				return fmt.Errorf("user %d: %w", userID, err)
			}
			tokens, err := auth.IssueTokens(userID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tokens)
		},
	}
}
