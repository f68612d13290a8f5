package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	longTextChars    = 1000
	fragmentChars    = 20
	DefaultMinTokens = 3
)

var tablePattern = regexp.MustCompile(`\d+\s+\d+\s+\d+`)

// SentenceRow is one sentence of a filing, as exported by the upstream
// dataset: identity fields plus static metadata, enriched locally with
// token/char counts and quality flags.
type SentenceRow struct {
	DocID      string `json:"docID"`
	Section    int    `json:"section"`
	SentenceID int    `json:"sentenceID"`
	Sentence   string `json:"sentence"`
	Company    string `json:"name"`
	ReportDate string `json:"reportDate"`
	CIK        string `json:"cik"`

	TokenCount      int    `json:"token_count"`
	CharCount       int    `json:"char_count"`
	SectionPriority string `json:"section_priority"`
	IsLongText      bool   `json:"is_long_text"`
	IsFragment      bool   `json:"is_fragment"`
	LikelyTable     bool   `json:"likely_table"`
}

// LoadRows reads the sentence export at path. JSON Lines and CSV are
// supported, picked by file extension.
func LoadRows(path string) ([]SentenceRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return loadJSONL(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported data format: %s", path)
	}
}

func loadJSONL(path string) ([]SentenceRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var rows []SentenceRow
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var row SentenceRow
		if err = json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadCSV(path string) ([]SentenceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"docID", "section", "sentenceID", "sentence"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := make([]SentenceRow, 0, len(records)-1)
	for n, record := range records[1:] {
		section, err := strconv.Atoi(field(record, "section"))
		if err != nil {
			return nil, fmt.Errorf("csv row %d: bad section: %w", n+2, err)
		}
		sentenceID, err := strconv.Atoi(field(record, "sentenceID"))
		if err != nil {
			return nil, fmt.Errorf("csv row %d: bad sentenceID: %w", n+2, err)
		}
		rows = append(rows, SentenceRow{
			DocID:      field(record, "docID"),
			Section:    section,
			SentenceID: sentenceID,
			Sentence:   field(record, "sentence"),
			Company:    field(record, "name"),
			ReportDate: field(record, "reportDate"),
			CIK:        field(record, "cik"),
		})
	}
	return rows, nil
}

// Enrich fills the derived columns in place: token and char counts,
// the section priority tier and the quality flags.
func Enrich(rows []SentenceRow) {
	for i := range rows {
		row := &rows[i]
		row.Sentence = StripHTML(row.Sentence)
		row.TokenCount = len(strings.Fields(row.Sentence))
		row.CharCount = utf8.RuneCountInString(row.Sentence)
		row.SectionPriority = SectionPriority(row.Section)
		row.IsLongText = row.CharCount > longTextChars
		row.IsFragment = row.CharCount < fragmentChars
		row.LikelyTable = tablePattern.MatchString(row.Sentence)
	}
}

// Filter drops rows below the token floor. Only true fragments like
// "." or "NA" go away; everything else is kept.
func Filter(rows []SentenceRow, minTokens int) []SentenceRow {
	kept := make([]SentenceRow, 0, len(rows))
	for _, row := range rows {
		if row.TokenCount >= minTokens {
			kept = append(kept, row)
		}
	}
	if dropped := len(rows) - len(kept); dropped > 0 {
		log.Printf("🧹 Filtered %d fragment rows (<%d tokens), using %d sentences", dropped, minTokens, len(kept))
	}
	return kept
}

// Sample takes a seeded random sample of n rows. With n <= 0 or
// n >= len(rows) the input is returned unchanged.
func Sample(rows []SentenceRow, n int, seed int64) []SentenceRow {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	rng := rand.New(rand.NewSource(seed))
	sampled := make([]SentenceRow, len(rows))
	copy(sampled, rows)
	rng.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	log.Printf("🎲 Randomly sampled %d of %d sentences", n, len(rows))
	return sampled[:n]
}
