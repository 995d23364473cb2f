// Package ledger stores documents as monthly CSV files under a project root.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fakturownik/fakturownik/internal/id"
	"github.com/fakturownik/fakturownik/internal/model"
)

// FileName is the name of each month's document file.
const FileName = "documents.csv"

// Store reads and appends documents under root/YYYY/MM/documents.csv.
type Store struct {
	root   string
	prefix string
}

// NewStore creates a Store. prefix is used for generated invoice numbers.
func NewStore(root, prefix string) *Store {
	if prefix == "" {
		prefix = "FV"
	}
	return &Store{root: root, prefix: prefix}
}

// Append validates doc against the rest of its month and appends it.
// An income document without a number gets the next one in sequence.
// The stored document is returned.
func (s *Store) Append(doc model.Document) (model.Document, error) {
	year, month := doc.IssueDate.Year(), doc.IssueDate.Month()

	existing, err := s.ReadMonth(year, month)
	if err != nil {
		return model.Document{}, err
	}

	if doc.Number == "" && doc.Kind == model.KindIncome {
		doc.Number = id.FormatInvoiceNumber(s.prefix, year, month, nextSeq(existing, s.prefix))
	}

	all := append(existing, doc)
	if vs := ValidateDocuments(all, year, month); len(vs) > 0 {
		msgs := make([]string, len(vs))
		for i, v := range vs {
			msgs[i] = v.Error()
		}
		return model.Document{}, model.NewValidationError(model.ErrInvalidDocument, "document", doc.ID,
			strings.Join(msgs, "; "))
	}

	path := s.MonthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return model.Document{}, fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return model.Document{}, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return model.Document{}, fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendDocuments(f, []model.Document{doc}); err != nil {
		return model.Document{}, fmt.Errorf("appending document: %w", err)
	}
	return doc, nil
}

// ReadMonth reads all documents issued in the given month.
func (s *Store) ReadMonth(year int, month time.Month) ([]model.Document, error) {
	return readFile(s.MonthPath(year, month))
}

// ReadAll reads every month under the root in chronological order.
func (s *Store) ReadAll() ([]model.Document, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", FileName))
	if err != nil {
		return nil, fmt.Errorf("listing ledger files: %w", err)
	}
	sort.Strings(paths)

	var out []model.Document
	for _, p := range paths {
		docs, err := readFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}
	return out, nil
}

// Split separates documents into income and expense slices.
func Split(docs []model.Document) (income, expenses []model.Document) {
	for _, d := range docs {
		switch d.Kind {
		case model.KindIncome:
			income = append(income, d)
		case model.KindExpense:
			expenses = append(expenses, d)
		}
	}
	return income, expenses
}

// NextNumberSeq returns the next invoice sequence number for a month.
func (s *Store) NextNumberSeq(year int, month time.Month) (int, error) {
	docs, err := s.ReadMonth(year, month)
	if err != nil {
		return 0, err
	}
	return nextSeq(docs, s.prefix), nil
}

func nextSeq(docs []model.Document, prefix string) int {
	maxSeq := 0
	for _, d := range docs {
		if d.Kind != model.KindIncome {
			continue
		}
		p, _, _, seq, err := id.ParseInvoiceNumber(d.Number)
		if err != nil || p != prefix {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}

func readFile(path string) ([]model.Document, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	docs, err := ReadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return docs, nil
}

// MonthPath returns the ledger file of the given month.
func (s *Store) MonthPath(year int, month time.Month) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", int(month)), FileName)
}
