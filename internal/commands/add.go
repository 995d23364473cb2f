package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakturownik/fakturownik/internal/currency"
	"github.com/fakturownik/fakturownik/internal/gitops"
	"github.com/fakturownik/fakturownik/internal/invoice"
	"github.com/fakturownik/fakturownik/internal/logger"
	"github.com/fakturownik/fakturownik/internal/model"
)

type addOptions struct {
	kind         string
	number       string
	issueDate    string
	saleDate     string
	party        string
	partyTaxID   string
	partyCountry string
	currency     string
	rate         string
	rateDate     string
	exemptReason string
	items        []string
}

func newAddCommand(a *app) *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an invoice or expense to the ledger",
		Example: `  fakturownik add --kind income --date 2024-02-05 --party "ACME Sp. z o.o." \
      --party-tax-id 1234563218 --item "consulting;10;150;23"
  fakturownik add --kind expense --number FA/11/2024 --date 2024-02-06 \
      --party "Hosting GmbH" --party-country DE --currency EUR --item "VPS;1;20;0"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAdd(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.kind, "kind", "income", "income or expense")
	f.StringVar(&opts.number, "number", "", "document number (income: generated when empty)")
	f.StringVar(&opts.issueDate, "date", "", "issue date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("date")
	f.StringVar(&opts.saleDate, "sale-date", "", "sale date YYYY-MM-DD when different from the issue date")
	f.StringVar(&opts.party, "party", "", "counterparty name (required)")
	_ = cmd.MarkFlagRequired("party")
	f.StringVar(&opts.partyTaxID, "party-tax-id", "", "counterparty tax ID")
	f.StringVar(&opts.partyCountry, "party-country", "", "counterparty ISO country code")
	f.StringVar(&opts.currency, "currency", model.LocalCurrency, "document currency")
	f.StringVar(&opts.rate, "rate", "", "manual exchange rate, skips the NBP lookup")
	f.StringVar(&opts.rateDate, "rate-date", "", "publication date of the manual rate")
	f.StringVar(&opts.exemptReason, "exempt-reason", "", "legal basis of a VAT-exempt document")
	f.StringArrayVar(&opts.items, "item", nil, `line item "description;quantity;unit price;vat rate" (repeatable)`)

	return cmd
}

func runAdd(cmd *cobra.Command, a *app, opts addOptions) error {
	root, cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}

	draft, err := opts.draft(profile)
	if err != nil {
		return err
	}

	svc, err := a.rateService(cfg)
	if err != nil {
		return err
	}
	log := logger.WithComponent("add")
	res, err := invoice.NewAssembler(svc, invoice.WithLogger(log)).Assemble(cmd.Context(), draft)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}

	st := store(root, cfg)
	doc, err := st.Append(res.Document)
	if err != nil {
		return err
	}

	t := doc.Totals
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s: net %s vat %s gross %s %s\n",
		doc.Kind, doc.Number, t.Net.StringFixed(2), t.Vat.StringFixed(2), t.Gross.StringFixed(2), doc.Currency)
	if !doc.IsLocalCurrency() {
		lt := doc.LocalTotals()
		fmt.Fprintf(cmd.OutOrStdout(), "  at %s (%s, %s): gross %s PLN\n",
			doc.ExchangeRate, doc.ExchangeRateDate.Format(dateFormat), doc.ExchangeRateSource, lt.Gross.StringFixed(2))
	}

	if cfg.Git.AutoCommit && gitops.IsRepo(root) {
		path := st.MonthPath(doc.IssueDate.Year(), doc.IssueDate.Month())
		hash, err := gitops.CommitPaths(cmd.Context(), root, fmt.Sprintf("add: %s %s", doc.Kind, doc.Number), author(cfg), path)
		if err != nil {
			return fmt.Errorf("committing document: %w", err)
		}
		log.Info().Str("commit", hash).Str("number", doc.Number).Msg("document committed")
	}
	return nil
}

func (o addOptions) draft(profile model.BusinessProfile) (invoice.Draft, error) {
	issue, err := parseDate("date", o.issueDate)
	if err != nil {
		return invoice.Draft{}, err
	}
	sale, err := parseDate("sale-date", o.saleDate)
	if err != nil {
		return invoice.Draft{}, err
	}

	d := invoice.Draft{
		Kind:      model.DocumentKind(strings.ToLower(o.kind)),
		Number:    o.number,
		IssueDate: issue,
		SaleDate:  sale,
		Counterparty: model.Party{
			Name:        o.party,
			TaxID:       o.partyTaxID,
			CountryCode: strings.ToUpper(o.partyCountry),
		},
		Currency:           o.currency,
		VatExemptionReason: o.exemptReason,
	}
	// Sales of a VAT-exempt taxpayer are exempt documents.
	d.VatExempt = profile.VatExempt && d.Kind == model.KindIncome

	for i, raw := range o.items {
		it, err := parseItem(raw)
		if err != nil {
			return invoice.Draft{}, fmt.Errorf("--item %d: %w", i+1, err)
		}
		d.Items = append(d.Items, it)
	}

	if o.rate != "" {
		rate, err := parseDecimal("rate", o.rate)
		if err != nil {
			return invoice.Draft{}, err
		}
		rateDate, err := parseDate("rate-date", o.rateDate)
		if err != nil {
			return invoice.Draft{}, err
		}
		sel, err := currency.Override(o.currency, issue, rate, rateDate)
		if err != nil {
			return invoice.Draft{}, err
		}
		d.Rate = &sel
	}
	return d, nil
}

func parseItem(raw string) (invoice.DraftItem, error) {
	parts := strings.Split(raw, ";")
	if len(parts) != 4 {
		return invoice.DraftItem{}, fmt.Errorf("expected description;quantity;unit price;vat rate, got %q", raw)
	}
	qty, err := parseDecimal("item quantity", strings.TrimSpace(parts[1]))
	if err != nil {
		return invoice.DraftItem{}, err
	}
	price, err := parseDecimal("item unit price", strings.TrimSpace(parts[2]))
	if err != nil {
		return invoice.DraftItem{}, err
	}
	rate, err := model.ParseVatRate(parts[3])
	if err != nil {
		return invoice.DraftItem{}, err
	}
	return invoice.DraftItem{
		Description: strings.TrimSpace(parts[0]),
		Quantity:    qty,
		UnitPrice:   price,
		VatRate:     rate,
	}, nil
}
