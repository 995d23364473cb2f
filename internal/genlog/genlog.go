// Package genlog keeps an audit trail of generated declarations in
// logs/jpk-log.csv under the project root.
package genlog

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one generated declaration.
type Entry struct {
	Timestamp     time.Time
	RequestID     string
	Period        string
	TaxID         string
	File          string
	SalesCount    int
	PurchaseCount int
	Digest        string // sha256 of the XML, hex
	CommitHash    string
}

// Header is the CSV header for jpk-log.csv.
const Header = "timestamp,request_id,period,tax_id,file,sales_count,purchase_count,sha256,commit_hash"

const (
	numFields        = 9
	logDir           = "logs"
	logFile          = "jpk-log.csv"
	colTimestamp     = 0
	colRequestID     = 1
	colPeriod        = 2
	colTaxID         = 3
	colFile          = 4
	colSalesCount    = 5
	colPurchaseCount = 6
	colDigest        = 7
	colCommitHash    = 8
)

// Digest returns the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Path returns the location of the log under root.
func Path(root string) string {
	return filepath.Join(root, logDir, logFile)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRequestID] = e.RequestID
	row[colPeriod] = e.Period
	row[colTaxID] = e.TaxID
	row[colFile] = e.File
	row[colSalesCount] = strconv.Itoa(e.SalesCount)
	row[colPurchaseCount] = strconv.Itoa(e.PurchaseCount)
	row[colDigest] = e.Digest
	row[colCommitHash] = e.CommitHash
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	sales, err := strconv.Atoi(record[colSalesCount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing sales_count %q: %w", record[colSalesCount], err)
	}
	purchases, err := strconv.Atoi(record[colPurchaseCount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing purchase_count %q: %w", record[colPurchaseCount], err)
	}

	return Entry{
		Timestamp:     ts,
		RequestID:     record[colRequestID],
		Period:        record[colPeriod],
		TaxID:         record[colTaxID],
		File:          record[colFile],
		SalesCount:    sales,
		PurchaseCount: purchases,
		Digest:        record[colDigest],
		CommitHash:    record[colCommitHash],
	}, nil
}

// Append writes entries to the log, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(root)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening generation log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	return cw.Error()
}

// Read returns all entries. A missing log yields no entries.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening generation log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// ForPeriod returns the entries of one period, oldest first.
func ForPeriod(root, period string) ([]Entry, error) {
	all, err := Read(root)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.Period == period {
			out = append(out, e)
		}
	}
	return out, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading generation log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
