package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"paycheck/internal/cli"
	"paycheck/internal/config"
	"paycheck/internal/core"
	"paycheck/internal/log"
	"paycheck/internal/pipeline"
	"paycheck/internal/statement"
)

// reportOptions holds the persistent flags. Empty values fall back to the
// environment, then to the server defaults.
type reportOptions struct {
	startingBalance string
	depositMarker   string
	incomeSubstring string
	incomePolicy    string
	debug           bool

	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &reportOptions{}
	root := &cobra.Command{
		Use:   "paycheck-report",
		Short: "Compute the paycheck dashboard from statement CSV files",
		Long: `paycheck-report runs the dashboard pipeline over bank statement exports
(CSV with Date, Description and Amount columns) and prints the result.

Settings default to the same environment variables the server reads
(STARTING_BALANCE, DEPOSIT_MARKER, INCOME_SUBSTRING, INCOME_POLICY).

Example:
  paycheck-report dashboard jan.csv feb.csv
  paycheck-report view expense_pivot jan.csv
  paycheck-report tables --ledgers-dir ./data jan.csv`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.LoadEnvFile()
			level := "warn"
			if opts.debug {
				level = "debug"
			}
			opts.logger = log.New(log.Config{
				Level:  log.ParseLevel(level),
				Format: "text",
				Output: cmd.ErrOrStderr(),
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.startingBalance, "starting-balance", "", "balance before the oldest transaction")
	pf.StringVar(&opts.depositMarker, "deposit-marker", "", "exact description of a paycheck deposit")
	pf.StringVar(&opts.incomeSubstring, "income-substring", "", "description substring that classifies income")
	pf.StringVar(&opts.incomePolicy, "income-policy", "", "most recent income policy: first-in-period, latest-in-period or legacy-slice")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newDashboardCmd(opts), newViewCmd(opts), newTablesCmd(opts))
	return root
}

func (o *reportOptions) pipelineOptions() (pipeline.Options, error) {
	cfg := config.Load()
	if err := cfg.EnvError("STARTING_BALANCE"); err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		DepositMarker:   cfg.DepositMarker,
		IncomeSubstring: cfg.IncomeSubstring,
		StartingBalance: cfg.StartingBalance,
	}
	if o.startingBalance != "" {
		d, err := core.ParseAmount(o.startingBalance)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("--starting-balance %q: %w", o.startingBalance, err)
		}
		opts.StartingBalance = d
	}
	if o.depositMarker != "" {
		opts.DepositMarker = o.depositMarker
	}
	if o.incomeSubstring != "" {
		opts.IncomeSubstring = o.incomeSubstring
	}
	policy := cfg.IncomePolicy
	if o.incomePolicy != "" {
		policy = o.incomePolicy
	}
	p, err := pipeline.ParseIncomePolicy(policy)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts.IncomePolicy = p
	return opts, nil
}

// compute loads the statements and runs the pipeline over them.
func (o *reportOptions) compute(ctx context.Context, paths []string) (*pipeline.Dashboard, error) {
	popts, err := o.pipelineOptions()
	if err != nil {
		return nil, err
	}
	batches, err := loadStatements(ctx, paths)
	if err != nil {
		return nil, err
	}
	return pipeline.New(popts, o.logger).Run(ctx, batches)
}

// loadStatements parses every file. Two files with the same base name are
// rejected the way a second upload would be.
func loadStatements(ctx context.Context, paths []string) ([]core.StatementBatch, error) {
	reg := statement.NewMemoryRegistry()
	for _, path := range paths {
		b, err := readStatement(path)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(ctx, b); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return reg.List(ctx)
}

func readStatement(path string) (core.StatementBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.StatementBatch{}, err
	}
	defer f.Close()
	return statement.ParseCSV(filepath.Base(path), f)
}
