package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRowsJSONL(t *testing.T) {
	path := writeFile(t, "rows.jsonl", strings.Join([]string{
		`{"docID":"D1","section":1,"sentenceID":0,"sentence":"First.","name":"ACME","reportDate":"2023-12-31","cik":"123"}`,
		``,
		`{"docID":"D1","section":1,"sentenceID":1,"sentence":"Second.","name":"ACME","reportDate":"2023-12-31","cik":"123"}`,
	}, "\n"))

	rows, err := LoadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "D1", rows[0].DocID)
	assert.Equal(t, 1, rows[1].SentenceID)
	assert.Equal(t, "ACME", rows[0].Company)
}

func TestLoadRowsCSV(t *testing.T) {
	path := writeFile(t, "rows.csv",
		"docID,section,sentenceID,sentence,name,reportDate,cik\n"+
			"D1,1,0,First sentence.,ACME,2023-12-31,123\n"+
			"D1,1,1,Second sentence.,ACME,2023-12-31,123\n")

	rows, err := LoadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Section)
	assert.Equal(t, "Second sentence.", rows[1].Sentence)
}

func TestLoadRowsCSVMissingColumn(t *testing.T) {
	path := writeFile(t, "rows.csv", "docID,section\nD1,1\n")
	_, err := LoadRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentenceID")
}

func TestLoadRowsUnsupportedFormat(t *testing.T) {
	_, err := LoadRows("rows.parquet")
	require.Error(t, err)
}

func TestLoadRowsBadJSON(t *testing.T) {
	path := writeFile(t, "rows.jsonl", "{not json}\n")
	_, err := LoadRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestEnrich(t *testing.T) {
	rows := []SentenceRow{
		{Section: 1, Sentence: "Risk factors include market volatility."},
		{Section: 10, Sentence: strings.Repeat("long text ", 150)},
		{Section: 99, Sentence: "Tiny."},
		{Section: 9, Sentence: "Revenue was 100 200 300 for the periods."},
	}
	Enrich(rows)

	assert.Equal(t, 5, rows[0].TokenCount)
	assert.Equal(t, "high", rows[0].SectionPriority)
	assert.False(t, rows[0].IsLongText)
	assert.False(t, rows[0].LikelyTable)

	assert.True(t, rows[1].IsLongText)
	assert.Equal(t, "highest", rows[1].SectionPriority)

	assert.True(t, rows[2].IsFragment)
	assert.Equal(t, "unknown", rows[2].SectionPriority)

	assert.True(t, rows[3].LikelyTable)
}

func TestEnrichStripsHTML(t *testing.T) {
	rows := []SentenceRow{{Section: 0, Sentence: "<p>Our <b>business</b> is growing.</p>"}}
	Enrich(rows)
	assert.Equal(t, "Our business is growing.", rows[0].Sentence)
	assert.Equal(t, 4, rows[0].TokenCount)
}

func TestFilter(t *testing.T) {
	rows := []SentenceRow{
		{Sentence: ".", TokenCount: 1},
		{Sentence: "NA", TokenCount: 1},
		{Sentence: "Three tokens here.", TokenCount: 3},
		{Sentence: "Plenty of tokens in this one.", TokenCount: 6},
	}
	kept := Filter(rows, 3)
	require.Len(t, kept, 2)
	assert.Equal(t, "Three tokens here.", kept[0].Sentence)
}

func TestFilterKeepsAllWhenBelowFloor(t *testing.T) {
	rows := []SentenceRow{{TokenCount: 5}, {TokenCount: 9}}
	assert.Len(t, Filter(rows, 0), 2)
}

func TestSampleDeterministic(t *testing.T) {
	rows := make([]SentenceRow, 100)
	for i := range rows {
		rows[i] = SentenceRow{SentenceID: i}
	}

	first := Sample(rows, 10, 42)
	second := Sample(rows, 10, 42)
	require.Len(t, first, 10)
	assert.Equal(t, first, second)

	other := Sample(rows, 10, 7)
	assert.NotEqual(t, first, other)
}

func TestSampleNoOp(t *testing.T) {
	rows := []SentenceRow{{SentenceID: 1}, {SentenceID: 2}}
	assert.Len(t, Sample(rows, 0, 42), 2)
	assert.Len(t, Sample(rows, 5, 42), 2)
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "No markup here.", "No markup here."},
		{"tags", "<div>Item 1A. <i>Risk Factors</i></div>", "Item 1A. Risk Factors"},
		{"nested", "<table><tr><td>100</td><td>200</td></tr></table>", "100 200"},
		{"empty", "", ""},
	}
	for _, cse := range cases {
		t.Run(cse.name, func(t *testing.T) {
			assert.Equal(t, cse.want, StripHTML(cse.in))
		})
	}
}

func TestSectionNameFallback(t *testing.T) {
	assert.Equal(t, "Business", SectionName(0))
	assert.Equal(t, "Exhibits", SectionName(19))
	assert.Equal(t, "Section_42", SectionName(42))
	assert.Equal(t, "unknown", SectionPriority(42))
}
