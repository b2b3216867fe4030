package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"immigration_crm_go/app"
	"immigration_crm_go/domain"
	"immigration_crm_go/models"
	"immigration_crm_go/services"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewCreateUserCommand creates a staff account. The password is prompted for
// when --password is not given.
func NewCreateUserCommand(opts *RootOptions) *cobra.Command {
	var in services.CreateUserInput
	var commission, hourly float64

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a staff user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				password, err := readPassword(cmd)
				if err != nil {
					return err
				}
				in.Password = password
			}
			if cmd.Flags().Changed("commission") {
				in.CommissionPercentage = &commission
			}
			if cmd.Flags().Changed("hourly-rate") {
				in.HourlyRate = &hourly
			}

			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Users.Create(ctx, in)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), user, func(w io.Writer) {
					fmt.Fprintf(w, "Created %s %s <%s> (%s)\n", user.Role, user.FullName, user.Email, user.ID)
				})
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name (required)")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name (required)")
	cmd.Flags().StringVar(&in.Role, "role", models.RoleAdmin, "role (admin|lawyer|staff)")
	cmd.Flags().StringVar(&in.Password, "password", "", "password; prompted when omitted")
	cmd.Flags().Float64Var(&commission, "commission", 0, "commission percentage for lawyers")
	cmd.Flags().Float64Var(&hourly, "hourly-rate", 0, "hourly rate for lawyers")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("first-name")
	cmd.MarkFlagRequired("last-name")

	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewSeedCatalogCommand loads the default immigration services
func NewSeedCatalogCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-catalog",
		Short: "Create the default immigration services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				created, err := services.SeedCatalog(ctx, a.Catalog, services.DefaultCatalog(), a.Log)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), map[string]int{"created": created}, func(w io.Writer) {
					fmt.Fprintf(w, "Created %d services\n", created)
				})
			})
		},
	}
}

// NewSummaryCommand generates the monthly summary and optionally exports it
func NewSummaryCommand(opts *RootOptions) *cobra.Command {
	var period, export string
	var archive bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Generate the accounting summary of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			month := domain.MonthOf(time.Now())
			if period != "" {
				m, err := domain.ParseMonth(period)
				if err != nil {
					return err
				}
				month = m
			}

			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Accounting.GenerateMonthlySummary(ctx, month)
				if err != nil {
					return err
				}
				if export != "" {
					buf, _, err := a.Exporter.BuildSummaryWorkbook(ctx, month)
					if err != nil {
						return err
					}
					if err := os.WriteFile(export, buf.Bytes(), 0o644); err != nil {
						return fmt.Errorf("failed to write export: %w", err)
					}
				}
				if archive {
					result, err := a.Exporter.ArchiveSummary(ctx, month)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Archived as %s\n", result.Key)
				}
				return opts.print(cmd.OutOrStdout(), summary, func(w io.Writer) {
					fmt.Fprintf(w, "Period:          %s\n", month)
					fmt.Fprintf(w, "Income:          %.2f\n", summary.TotalIncome)
					fmt.Fprintf(w, "Lawyer payments: %.2f\n", summary.LawyerPayments)
					fmt.Fprintf(w, "Expenses:        %.2f\n", summary.GeneralExpenses)
					fmt.Fprintf(w, "Net profit:      %.2f (%.2f%%)\n", summary.NetProfit, summary.ProfitMargin)
					fmt.Fprintf(w, "New cases:       %d\n", summary.NewCases)
					fmt.Fprintf(w, "Completed cases: %d\n", summary.CompletedCases)
				})
			})
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "month as YYYY-MM (default current month)")
	cmd.Flags().StringVar(&export, "export", "", "write the xlsx report to this file")
	cmd.Flags().BoolVar(&archive, "archive", false, "store the xlsx report in object storage")
	return cmd
}

// NewNotifyCommand runs the automatic reminder generator once
func NewNotifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Generate payment and milestone reminders now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				created, err := a.Jobs.GenerateNotifications(ctx)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), map[string]int{"created": created}, func(w io.Writer) {
					fmt.Fprintf(w, "Created %d notifications\n", created)
				})
			})
		},
	}
}

// NewSyncOrdersCommand ingests shop orders from a JSON file holding one order or a list
func NewSyncOrdersCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sync-orders",
		Short: "Ingest shop orders from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := readOrders(file)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				results, err := a.Orders.ProcessBatch(ctx, orders)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), results, func(w io.Writer) {
					counts := map[string]int{}
					for _, r := range results {
						counts[r.Status]++
						line := fmt.Sprintf("%-12s %-8s", r.OrderID, r.Status)
						if r.CaseID != "" {
							line += " case=" + r.CaseID
						}
						if r.Error != "" {
							line += " error=" + r.Error
						}
						fmt.Fprintln(w, line)
					}
					fmt.Fprintf(w, "%d success, %d skipped, %d error\n",
						counts[models.OrderSyncStatusSuccess], counts[models.OrderSyncStatusSkipped], counts[models.OrderSyncStatusError])
				})
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with the orders (required)")
	cmd.MarkFlagRequired("file")
	return cmd
}

func readOrders(path string) ([]services.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var orders []services.Order
		if err := json.Unmarshal(data, &orders); err != nil {
			return nil, fmt.Errorf("failed to parse orders: %w", err)
		}
		return orders, nil
	}
	var order services.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order: %w", err)
	}
	return []services.Order{order}, nil
}
