package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fakturownik/fakturownik/internal/genlog"
	"github.com/fakturownik/fakturownik/internal/gitops"
	"github.com/fakturownik/fakturownik/internal/id"
	"github.com/fakturownik/fakturownik/internal/jpk"
	"github.com/fakturownik/fakturownik/internal/ledger"
	"github.com/fakturownik/fakturownik/internal/logger"
	"github.com/fakturownik/fakturownik/internal/model"
	"github.com/fakturownik/fakturownik/internal/periods"
)

func newJPKCommand(a *app) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "jpk PERIOD",
		Short: "Generate the JPK_V7M declaration for a month",
		Long: `Generate the JPK_V7M(2) declaration for PERIOD (YYYY-MM) from the
documents in the ledger and write it to jpk/JPK_V7_<NIP>_<PERIOD>.xml.
Each run is recorded in logs/jpk-log.csv and, with git.auto_commit,
committed to the books repository.`,
		Example: "  fakturownik jpk 2024-02",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJPK(cmd, a, args[0], outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: <dir>/jpk)")
	return cmd
}

func runJPK(cmd *cobra.Command, a *app, periodKey, outDir string) error {
	ctx := cmd.Context()
	requestID := uuid.NewString()
	log := logger.WithRequestID(logger.WithComponent("jpk"), requestID)

	start, end, err := id.PeriodRange(periodKey)
	if err != nil {
		return err
	}
	period := model.FiscalPeriod{Key: periodKey, Start: start, End: end}

	root, cfg, err := a.loadConfig()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No project file: the builder reports the missing profile.
		_, err = jpk.NewBuilder().Build(period, nil, nil, nil)
		return userFacing(err)
	case err != nil:
		return err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}

	docs, err := store(root, cfg).ReadMonth(start.Year(), start.Month())
	if err != nil {
		return err
	}
	invoices, expenses := ledger.Split(docs)

	decl, err := jpk.NewBuilder().Build(period, invoices, expenses, &profile)
	if err != nil {
		return userFacing(err)
	}
	data, err := jpk.Serialize(decl)
	if err != nil {
		return userFacing(err)
	}

	if outDir == "" {
		outDir = filepath.Join(root, "jpk")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(outDir, decl.FileName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing declaration: %w", err)
	}

	entry := genlog.Entry{
		Timestamp:     decl.Header.GeneratedAt,
		RequestID:     requestID,
		Period:        periodKey,
		TaxID:         decl.Header.Entity.TaxID,
		File:          relTo(root, path),
		SalesCount:    len(decl.Sales),
		PurchaseCount: len(decl.Purchases),
		Digest:        genlog.Digest(data),
	}
	if cfg.Git.AutoCommit && gitops.IsRepo(root) {
		hash, err := gitops.CommitPaths(ctx, root, "jpk: "+periodKey, author(cfg), path)
		if err != nil {
			return fmt.Errorf("committing declaration: %w", err)
		}
		entry.CommitHash = hash
	}
	if err := genlog.Append(root, []genlog.Entry{entry}); err != nil {
		return err
	}

	log.Info().
		Str("period", periodKey).
		Str("file", entry.File).
		Str("sha256", entry.Digest).
		Str("commit", entry.CommitHash).
		Msg("declaration generated")

	s := decl.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d sales, %d purchases)\n", path, len(decl.Sales), len(decl.Purchases))
	if s.VatSurplus.IsPositive() {
		fmt.Fprintf(cmd.OutOrStdout(), "VAT surplus to carry forward: %s PLN\n", s.VatSurplus.StringFixed(2))
	} else {
		day := cfg.Deadlines.JPKDay
		if day <= 0 {
			day = periods.DefaultOptions().JPKDay
		}
		fmt.Fprintf(cmd.OutOrStdout(), "VAT due: %s PLN by %s\n", s.VatDue.StringFixed(2), periods.DeadlineDate(start, day).Format(dateFormat))
	}
	return nil
}

// userFacing replaces a generation error with its actionable message.
func userFacing(err error) error {
	var ge *model.GenerationError
	if errors.As(err, &ge) {
		return fmt.Errorf("%s: %w", ge.UserMessage(), ge.Err)
	}
	return err
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
