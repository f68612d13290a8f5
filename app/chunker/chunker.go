package chunker

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"FilingFlow/app/ingest"
)

const (
	DefaultWindow   = 3
	DefaultStride   = 2
	DefaultMaxChars = 2000
)

// Chunk is the unit of embedding and retrieval: a span of contiguous
// sentences from one (document, section) pair, never crossing either
// boundary, plus the metadata copied from its source rows.
type Chunk struct {
	ID          string `json:"chunk_id"`
	Text        string `json:"text"`
	DocID       string `json:"docID"`
	Section     int    `json:"section"`
	SectionName string `json:"section_name"`
	Company     string `json:"company"`
	ReportDate  string `json:"reportDate"`
	CIK         string `json:"cik"`
	Priority    string `json:"priority"`
	Sentences   int    `json:"n_sentences"`
	CharCount   int    `json:"char_count"`
	Split       bool   `json:"is_split"`
}

// Chunker slides a Window-sentence window with the given Stride over
// each (document, section) partition. Stride < Window yields overlap
// of Window-Stride sentences between consecutive chunks. Windows whose
// concatenated text exceeds MaxChars are re-split at sentence
// boundaries; MaxChars is a soft threshold, a single oversized
// sentence is still emitted whole.
type Chunker struct {
	Window   int
	Stride   int
	MaxChars int
}

func New(window, stride, maxChars int) *Chunker {
	return &Chunker{Window: window, Stride: stride, MaxChars: maxChars}
}

type partitionKey struct {
	DocID   string
	Section int
}

// Chunk turns sentence rows into chunks. Rows are grouped by
// (document, section) and ordered by sentence id within each group;
// group output order is deterministic for stable chunk identifiers.
func (c *Chunker) Chunk(rows []ingest.SentenceRow) []Chunk {
	groups := make(map[partitionKey][]ingest.SentenceRow)
	keys := make([]partitionKey, 0)
	for _, row := range rows {
		key := partitionKey{DocID: row.DocID, Section: row.Section}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], row)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DocID != keys[j].DocID {
			return keys[i].DocID < keys[j].DocID
		}
		return keys[i].Section < keys[j].Section
	})

	var chunks []Chunk
	for _, key := range keys {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			return group[i].SentenceID < group[j].SentenceID
		})
		chunks = append(chunks, c.chunkPartition(key, group)...)
	}

	log.Printf("✂️ Created %d chunks from %d sentences", len(chunks), len(rows))
	logChunkStats(chunks)

	return chunks
}

func (c *Chunker) chunkPartition(key partitionKey, group []ingest.SentenceRow) []Chunk {
	if len(group) == 0 {
		return nil
	}

	sentences := make([]string, len(group))
	for i, row := range group {
		sentences[i] = row.Sentence
	}
	meta := group[0]

	base := func(text string, n int, split bool, id string) Chunk {
		return Chunk{
			ID:          id,
			Text:        text,
			DocID:       key.DocID,
			Section:     key.Section,
			SectionName: ingest.SectionName(key.Section),
			Company:     meta.Company,
			ReportDate:  meta.ReportDate,
			CIK:         meta.CIK,
			Priority:    ingest.SectionPriority(key.Section),
			Sentences:   n,
			CharCount:   utf8.RuneCountInString(text),
			Split:       split,
		}
	}

	// Short partitions become a single chunk regardless of length.
	if len(sentences) < c.Window {
		text := strings.Join(sentences, " ")
		id := fmt.Sprintf("%s_sec%d_full", key.DocID, key.Section)
		return []Chunk{base(text, len(sentences), false, id)}
	}

	var chunks []Chunk
	for i := 0; i+c.Window <= len(sentences); i += c.Stride {
		window := sentences[i : i+c.Window]
		text := strings.Join(window, " ")

		if utf8.RuneCountInString(text) > c.MaxChars {
			for j, sub := range c.resplit(window) {
				id := fmt.Sprintf("%s_sec%d_chunk%d_part%d", key.DocID, key.Section, i, j)
				chunks = append(chunks, base(sub, c.Window, true, id))
			}
			continue
		}

		id := fmt.Sprintf("%s_sec%d_chunk%d", key.DocID, key.Section, i)
		chunks = append(chunks, base(text, c.Window, false, id))
	}
	return chunks
}

// resplit cuts an oversized window at sentence boundaries. The buffer
// is flushed whenever the next sentence would push it past MaxChars,
// so a lone sentence longer than MaxChars still comes out whole.
func (c *Chunker) resplit(sentences []string) []string {
	var subs []string
	var current string

	for _, sentence := range sentences {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence) < c.MaxChars {
			if current == "" {
				current = sentence
			} else {
				current += " " + sentence
			}
		} else {
			if current != "" {
				subs = append(subs, current)
			}
			current = sentence
		}
	}
	if current != "" {
		subs = append(subs, current)
	}
	return subs
}

func logChunkStats(chunks []Chunk) {
	if len(chunks) == 0 {
		return
	}
	minChars, maxChars, total := chunks[0].CharCount, chunks[0].CharCount, 0
	split := 0
	for _, ch := range chunks {
		if ch.CharCount < minChars {
			minChars = ch.CharCount
		}
		if ch.CharCount > maxChars {
			maxChars = ch.CharCount
		}
		total += ch.CharCount
		if ch.Split {
			split++
		}
	}
	log.Printf("📊 Chunk stats - Min chars: %d, Max: %d, Avg: %.0f", minChars, maxChars, float64(total)/float64(len(chunks)))
	if split > 0 {
		log.Printf("⚠️ Split %d long chunks (likely tables/lists)", split)
	}
}
