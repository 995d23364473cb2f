package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakturownik/fakturownik/internal/config"
	"github.com/fakturownik/fakturownik/internal/gitops"
)

type initOptions struct {
	taxID     string
	name      string
	legalForm string
	regime    string
	email     string
	taxOffice string
	noGit     bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new books directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.taxID, "tax-id", "", "NIP of the business (required)")
	_ = cmd.MarkFlagRequired("tax-id")
	cmd.Flags().StringVar(&opts.name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.legalForm, "legal-form", "individual", "individual or company")
	cmd.Flags().StringVar(&opts.regime, "regime", "FLAT", "PROGRESSIVE, FLAT, LUMP_SUM or TAX_CARD")
	cmd.Flags().StringVar(&opts.email, "email", "", "contact e-mail for the declaration")
	cmd.Flags().StringVar(&opts.taxOffice, "tax-office", "", "4-digit tax office code")
	cmd.Flags().BoolVar(&opts.noGit, "no-git", false, "do not create a git repository")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts initOptions) error {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	for _, d := range []string{"logs", "jpk", "reports"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(opts.taxID, opts.name)
	cfg.Business.LegalForm = opts.legalForm
	cfg.Business.Email = opts.email
	cfg.Business.TaxOfficeCode = opts.taxOffice
	cfg.Tax.Regime = strings.ToUpper(opts.regime)
	cfg.Git.AutoCommit = !opts.noGit
	if _, err := cfg.Profile(); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := "reports/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	for _, d := range []string{"logs", "jpk"} {
		if err := os.WriteFile(filepath.Join(dir, d, ".gitkeep"), []byte{}, 0o644); err != nil {
			return fmt.Errorf("writing .gitkeep: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.noGit {
		fmt.Fprintf(out, "Initialized books for %s at %s\n", opts.name, dir)
		return nil
	}

	ctx := cmd.Context()
	if err := gitops.Init(ctx, dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	hash, err := gitops.CommitPaths(ctx, dir, "init: "+opts.name, author(cfg))
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized books for %s at %s (%s)\n", opts.name, dir, hash)
	return nil
}
