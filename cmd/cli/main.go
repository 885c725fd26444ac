package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	postgresRepo "github.com/gotoUSA/django-shopping-mall-sub001/internal/adapter/repository/postgres"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/config"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/logger"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/notifier"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/postgres"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
)

var (
	databaseURL string
	timeout     time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "points-cli",
		Short:        "Point ledger admin tool",
		Long:         `Operates the shop's point ledger directly against the database.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Command timeout")

	rootCmd.AddCommand(accountCmd(), pointCmd(), orderCmd(), sweepCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// withEngine runs fn against an engine wired straight to the database. The
// CLI skips Redis on purpose: no cache, no sweep lock, just the ledger.
func withEngine(fn func(ctx context.Context, engine *usecase.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	policy, err := cfg.EarnPolicy()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       4,
		MinConns:       1,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	appLog := logger.New(logger.Config{Level: "warn", Format: "console"})

	engine := usecase.NewEngine(usecase.EngineDeps{
		TxManager:   postgresRepo.NewTxManager(pool, cfg.LockTimeout),
		AccountRepo: postgresRepo.NewAccountRepository(pool),
		EntryRepo:   postgresRepo.NewEntryRepository(pool),
		UsageRepo:   postgresRepo.NewUsageRepository(pool),
		OutboxRepo:  postgresRepo.NewOutboxRepository(pool),
		IDGen:       postgresRepo.NewULIDGenerator(),
		Notifier:    notifier.NewLogNotifier(appLog),
		Retrier:     postgresRepo.NewRetrier(),

		Policy:        policy,
		NotifyHorizon: cfg.NotifyHorizon,
		Logger:        appLog,
	})

	return fn(ctx, engine)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	return cfg, nil
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account queries",
	}
	cmd.AddCommand(balanceCmd(), historyCmd(), verifyCmd(), expiringCmd(), auditCmd())

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the current point balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				balance, err := engine.Query.Balance(ctx, args[0])
				if err != nil {
					return err
				}

				printJSON(map[string]any{"account_id": args[0], "balance": balance})
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	var before string

	cmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "List ledger entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				entries, err := engine.Query.History(ctx, args[0], limit, before)
				if err != nil {
					return err
				}

				printEntryTable(entries)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to list")
	cmd.Flags().StringVar(&before, "before", "", "List entries older than this entry ID")

	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Compare the balance against the sum of live remainders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				result, err := engine.Query.Verify(ctx, args[0])
				if err != nil {
					return err
				}

				printJSON(map[string]any{
					"account_id": result.AccountID,
					"balance":    result.Balance,
					"computed":   result.Computed,
					"drift":      result.Drift,
					"consistent": result.Consistent,
					"checked_at": result.CheckedAt.Format(time.RFC3339),
				})

				if !result.Consistent {
					return fmt.Errorf("account %s is inconsistent: drift %d", result.AccountID, result.Drift)
				}
				return nil
			})
		},
	}
}

func auditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Verify the balance projection across all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				report, err := engine.Recon.VerifyAll(ctx, limit)
				if err != nil {
					return err
				}

				drifted := make([]map[string]any, 0, len(report.Drifted))
				for _, d := range report.Drifted {
					drifted = append(drifted, map[string]any{
						"account_id": d.AccountID,
						"balance":    d.Balance,
						"computed":   d.Computed,
						"drift":      d.Drift,
					})
				}

				printJSON(map[string]any{
					"run_id":  report.RunID,
					"checked": report.Checked,
					"drifted": drifted,
					"failed":  failedJSON(report.Failed),
				})

				if !report.Clean() {
					return fmt.Errorf("%d accounts drifted, %d failed", len(report.Drifted), len(report.Failed))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum accounts to check (0 = all)")

	return cmd
}

func expiringCmd() *cobra.Command {
	var within time.Duration

	cmd := &cobra.Command{
		Use:   "expiring <account-id>",
		Short: "Show points about to expire",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				summary, err := engine.Query.ExpiringSoon(ctx, args[0], within)
				if err != nil {
					return err
				}

				entries := make([]map[string]any, 0, len(summary.Entries))
				for _, e := range summary.Entries {
					entries = append(entries, map[string]any{
						"entry_id":   e.ID,
						"remaining":  e.Remaining(),
						"expires_at": e.ExpiresAt.Format(time.RFC3339),
					})
				}

				printJSON(map[string]any{
					"account_id": summary.AccountID,
					"until":      summary.Until.Format(time.RFC3339),
					"total":      summary.Total,
					"entries":    entries,
				})
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&within, "within", 0, "Horizon (default: the configured notify horizon)")

	return cmd
}

func pointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "point",
		Short: "Point mutations",
	}
	cmd.AddCommand(earnCmd(), useCmd(), grantCmd(), addCmd(), deductCmd())

	return cmd
}

func earnCmd() *cobra.Command {
	var orderRef string

	cmd := &cobra.Command{
		Use:   "earn <account-id> <paid-amount>",
		Short: "Grant points for a paid order amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paid, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid paid amount %q: %w", args[1], err)
			}

			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				entry, err := engine.Earn.EarnForPayment(ctx, args[0], paid, orderRef)
				if err != nil {
					return err
				}
				if entry == nil {
					printJSON(map[string]any{"account_id": args[0], "earned": 0})
					return nil
				}

				printJSON(entryJSON(entry))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&orderRef, "order", "", "Order reference")

	return cmd
}

func useCmd() *cobra.Command {
	var orderRef string

	cmd := &cobra.Command{
		Use:   "use <account-id> <points>",
		Short: "Spend points, earliest expiry first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePoints(args[1])
			if err != nil {
				return err
			}

			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				entry, err := engine.Spend.Use(ctx, usecase.UseInput{
					AccountID: args[0],
					Amount:    amount,
					OrderRef:  orderRef,
				})
				if err != nil {
					return err
				}

				printJSON(entryJSON(entry))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&orderRef, "order", "", "Order reference")

	return cmd
}

func grantCmd() *cobra.Command {
	var campaign string

	cmd := &cobra.Command{
		Use:   "grant <account-id> <points>",
		Short: "Grant event or campaign points",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePoints(args[1])
			if err != nil {
				return err
			}

			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				entry, err := engine.Earn.GrantEvent(ctx, args[0], amount, campaign)
				if err != nil {
					return err
				}

				printJSON(entryJSON(entry))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&campaign, "campaign", "", "Campaign name")

	return cmd
}

func addCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "add <account-id> <points>",
		Short: "Credit points by admin action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePoints(args[1])
			if err != nil {
				return err
			}

			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				entry, err := engine.Earn.AdminAdd(ctx, args[0], amount, reason)
				if err != nil {
					return err
				}

				printJSON(entryJSON(entry))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Audit reason")

	return cmd
}

func deductCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "deduct <account-id> <points>",
		Short: "Debit points by admin action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePoints(args[1])
			if err != nil {
				return err
			}

			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				entry, err := engine.Spend.AdminDeduct(ctx, args[0], amount, reason)
				if err != nil {
					return err
				}

				printJSON(entryJSON(entry))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Audit reason")

	return cmd
}

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Order-level operations",
	}
	cmd.AddCommand(reverseCmd())

	return cmd
}

func reverseCmd() *cobra.Command {
	var orderRef string
	var used, earned int64

	cmd := &cobra.Command{
		Use:   "reverse <account-id>",
		Short: "Undo an order's point effects (refund used, claw back earned)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if orderRef == "" {
				return fmt.Errorf("--order is required")
			}

			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				result, err := engine.Cancel.ReverseForCancellation(ctx, usecase.ReverseInput{
					AccountID:    args[0],
					OrderRef:     orderRef,
					UsedAmount:   used,
					EarnedAmount: earned,
				})
				if err != nil {
					return err
				}

				printJSON(map[string]any{
					"account_id":  args[0],
					"order_ref":   orderRef,
					"refunded":    result.Refunded,
					"restored":    result.Restored,
					"clawed_back": result.ClawedBack,
				})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&orderRef, "order", "", "Order reference (required)")
	cmd.Flags().Int64Var(&used, "used", 0, "Points the order consumed")
	cmd.Flags().Int64Var(&earned, "earned", 0, "Points the order granted")

	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a sweep pass once",
	}
	cmd.AddCommand(sweepExpireCmd(), sweepNotifyCmd())

	return cmd
}

func sweepExpireCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire all due accruals now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				report, err := engine.Expiry.ExpireDue(ctx, time.Now().UTC(), accountID)
				if err != nil {
					return err
				}

				printJSON(map[string]any{
					"run_id":    report.RunID,
					"accounts":  report.Accounts,
					"processed": report.Processed,
					"debited":   report.Debited,
					"skipped":   report.Skipped,
					"failed":    failedJSON(report.Failed),
				})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "Sweep a single account")

	return cmd
}

func sweepNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Send expiring-soon notices now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, engine *usecase.Engine) error {
				report, err := engine.Expiry.NotifyUpcoming(ctx, time.Now().UTC())
				if err != nil {
					return err
				}

				printJSON(map[string]any{
					"run_id":   report.RunID,
					"accounts": report.Accounts,
					"entries":  report.Entries,
					"points":   report.Points,
					"failed":   failedJSON(report.Failed),
				})
				return nil
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath)
		},
	}

	cmd.AddCommand(up, down)

	return cmd
}

func parsePoints(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid point amount %q: %w", s, err)
	}

	return amount, nil
}

func entryJSON(e *domain.Entry) map[string]any {
	out := map[string]any{
		"entry_id":      e.ID,
		"account_id":    e.AccountID,
		"kind":          string(e.Kind),
		"amount":        e.Amount,
		"balance_after": e.BalanceAfter,
	}
	if e.OrderRef != "" {
		out["order_ref"] = e.OrderRef
	}
	if e.ExpiresAt != nil {
		out["expires_at"] = e.ExpiresAt.Format(time.RFC3339)
	}

	return out
}

func failedJSON(failures []usecase.SweepFailure) []map[string]string {
	out := make([]map[string]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, map[string]string{
			"account_id": f.AccountID,
			"error":      f.Err.Error(),
		})
	}

	return out
}

func printEntryTable(entries []*domain.Entry) {
	fmt.Printf("%-28s %-13s %9s %9s %-17s %s\n",
		"ID", "KIND", "AMOUNT", "REMAINING", "EXPIRES", "ORDER")

	for _, e := range entries {
		expires := "-"
		if e.ExpiresAt != nil {
			expires = e.ExpiresAt.Format("2006-01-02 15:04")
		}

		remaining := "-"
		if e.Kind.IsAccrual() {
			remaining = strconv.FormatInt(e.Remaining(), 10)
		}

		fmt.Printf("%-28s %-13s %9d %9s %-17s %s\n",
			e.ID, e.Kind, e.Amount, remaining, expires, truncate(e.OrderRef, 24))
	}
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to encode output: %v\n", err)
		return
	}

	fmt.Println(string(data))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n-3] + "..."
}
