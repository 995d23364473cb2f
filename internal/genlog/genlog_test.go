package genlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:     testTime,
		RequestID:     "5f0c2a8e-1111-4222-8333-944455556666",
		Period:        "2024-02",
		TaxID:         "5260250274",
		File:          "jpk/JPK_V7_5260250274_2024-02.xml",
		SalesCount:    3,
		PurchaseCount: 1,
		Digest:        Digest([]byte("<JPK/>")),
		CommitHash:    "abc1234",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "jpk-log.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), Header+"\n"))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Period = "2024-03"
	e2.SalesCount = 0
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "timestamp,"), "header written once")

	feb, err := ForPeriod(dir, "2024-02")
	require.NoError(t, err)
	assert.Len(t, feb, 1)
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	row := MarshalEntry(testEntry())

	_, err := UnmarshalEntry(row[:3])
	assert.Error(t, err)

	bad := append([]string(nil), row...)
	bad[colTimestamp] = "yesterday"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)

	bad = append([]string(nil), row...)
	bad[colSalesCount] = "many"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(nil))
	assert.Len(t, Digest([]byte("x")), 64)
}
