package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/calc"
	"github.com/fakturownik/fakturownik/internal/model"
)

// Header is the CSV header for documents.csv. Each row is one line item;
// consecutive rows sharing doc_id form one document.
const Header = "doc_id,kind,number,issue_date,sale_date,counterparty_name,counterparty_tax_id,counterparty_country,currency,exchange_rate,rate_date,rate_source,vat_exempt,exemption_reason,description,quantity,unit_price,vat_rate,net,vat,gross"

const (
	numFields     = 21
	dateFormat    = "2006-01-02"
	colDocID      = 0
	colKind       = 1
	colNumber     = 2
	colIssueDate  = 3
	colSaleDate   = 4
	colCpName     = 5
	colCpTaxID    = 6
	colCpCountry  = 7
	colCurrency   = 8
	colRate       = 9
	colRateDate   = 10
	colRateSource = 11
	colVatExempt  = 12
	colReason     = 13
	colDesc       = 14
	colQuantity   = 15
	colUnitPrice  = 16
	colVatRate    = 17
	colNet        = 18
	colVat        = 19
	colGross      = 20
)

// ReadDocuments reads all documents from a documents.csv reader.
// Document totals are recomputed from the stored items.
func ReadDocuments(r io.Reader) ([]model.Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading documents CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var docs []model.Document
	index := make(map[string]int)
	for i, rec := range records[1:] {
		doc, item, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if at, ok := index[doc.ID]; ok {
			docs[at].Items = append(docs[at].Items, item)
			continue
		}
		doc.Items = []model.LineItem{item}
		index[doc.ID] = len(docs)
		docs = append(docs, doc)
	}

	for i := range docs {
		docs[i].Totals = calc.Aggregate(docs[i].Items)
	}
	return docs, nil
}

// WriteDocuments writes docs to w, header included.
func WriteDocuments(w io.Writer, docs []model.Document) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, d := range docs {
		for _, row := range MarshalDocument(d) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing document %s: %w", d.ID, err)
			}
		}
	}
	return cw.Error()
}

// AppendDocuments appends docs to an existing documents.csv writer (no header).
func AppendDocuments(w io.Writer, docs []model.Document) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for _, d := range docs {
		for _, row := range MarshalDocument(d) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing document %s: %w", d.ID, err)
			}
		}
	}
	return cw.Error()
}

// MarshalDocument converts a document to one CSV row per line item.
func MarshalDocument(d model.Document) [][]string {
	rows := make([][]string, 0, len(d.Items))
	for _, it := range d.Items {
		row := make([]string, numFields)
		row[colDocID] = d.ID
		row[colKind] = string(d.Kind)
		row[colNumber] = d.Number
		row[colIssueDate] = d.IssueDate.Format(dateFormat)
		if !d.SaleDate.IsZero() {
			row[colSaleDate] = d.SaleDate.Format(dateFormat)
		}
		row[colCpName] = d.Counterparty.Name
		row[colCpTaxID] = d.Counterparty.TaxID
		row[colCpCountry] = d.Counterparty.CountryCode
		row[colCurrency] = d.Currency
		if !d.ExchangeRate.IsZero() {
			row[colRate] = d.ExchangeRate.String()
		}
		if !d.ExchangeRateDate.IsZero() {
			row[colRateDate] = d.ExchangeRateDate.Format(dateFormat)
		}
		row[colRateSource] = string(d.ExchangeRateSource)
		row[colVatExempt] = strconv.FormatBool(d.VatExempt)
		row[colReason] = d.VatExemptionReason

		row[colDesc] = it.Description
		row[colQuantity] = it.Quantity.String()
		row[colUnitPrice] = it.UnitPrice.String()
		row[colVatRate] = string(it.VatRate)
		row[colNet] = it.Net.StringFixed(2)
		row[colVat] = it.Vat.StringFixed(2)
		row[colGross] = it.Gross.StringFixed(2)
		rows = append(rows, row)
	}
	return rows
}

// UnmarshalRow converts a CSV row to its document header and line item.
func UnmarshalRow(record []string) (model.Document, model.LineItem, error) {
	var (
		doc  model.Document
		item model.LineItem
	)
	if len(record) != numFields {
		return doc, item, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	issue, err := time.Parse(dateFormat, record[colIssueDate])
	if err != nil {
		return doc, item, fmt.Errorf("parsing issue_date %q: %w", record[colIssueDate], err)
	}
	sale, err := optionalDate(record[colSaleDate])
	if err != nil {
		return doc, item, fmt.Errorf("parsing sale_date %q: %w", record[colSaleDate], err)
	}
	rateDate, err := optionalDate(record[colRateDate])
	if err != nil {
		return doc, item, fmt.Errorf("parsing rate_date %q: %w", record[colRateDate], err)
	}

	var rate decimal.Decimal
	if record[colRate] != "" {
		rate, err = decimal.NewFromString(record[colRate])
		if err != nil {
			return doc, item, fmt.Errorf("parsing exchange_rate %q: %w", record[colRate], err)
		}
	}

	exempt := false
	if record[colVatExempt] != "" {
		exempt, err = strconv.ParseBool(record[colVatExempt])
		if err != nil {
			return doc, item, fmt.Errorf("parsing vat_exempt %q: %w", record[colVatExempt], err)
		}
	}

	vatRate, err := model.ParseVatRate(record[colVatRate])
	if err != nil {
		return doc, item, err
	}

	amounts := make([]decimal.Decimal, 5)
	for i, col := range []int{colQuantity, colUnitPrice, colNet, colVat, colGross} {
		amounts[i], err = decimal.NewFromString(record[col])
		if err != nil {
			return doc, item, fmt.Errorf("parsing column %d %q: %w", col+1, record[col], err)
		}
	}

	doc = model.Document{
		ID:        record[colDocID],
		Kind:      model.DocumentKind(record[colKind]),
		Number:    record[colNumber],
		IssueDate: issue,
		SaleDate:  sale,
		Counterparty: model.Party{
			Name:        record[colCpName],
			TaxID:       record[colCpTaxID],
			CountryCode: record[colCpCountry],
		},
		Currency:           record[colCurrency],
		ExchangeRate:       rate,
		ExchangeRateDate:   rateDate,
		ExchangeRateSource: model.RateSource(record[colRateSource]),
		VatExempt:          exempt,
		VatExemptionReason: record[colReason],
	}
	item = model.LineItem{
		Description: record[colDesc],
		Quantity:    amounts[0],
		UnitPrice:   amounts[1],
		VatRate:     vatRate,
		Net:         amounts[2],
		Vat:         amounts[3],
		Gross:       amounts[4],
	}
	return doc, item, nil
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateFormat, s)
}
