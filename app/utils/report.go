package utils

import (
	"fmt"
	"sort"

	"github.com/xlab/treeprint"

	"FilingFlow/app/chunker"
)

// BuildChunkTree renders the document → section → chunk-count
// distribution of a chunking run as a tree.
func BuildChunkTree(chunks []chunker.Chunk) string {
	type sectionStats struct {
		name  string
		total int
		split int
	}

	docs := make(map[string]map[int]*sectionStats)
	for _, ch := range chunks {
		sections, ok := docs[ch.DocID]
		if !ok {
			sections = make(map[int]*sectionStats)
			docs[ch.DocID] = sections
		}
		stats, ok := sections[ch.Section]
		if !ok {
			stats = &sectionStats{name: ch.SectionName}
			sections[ch.Section] = stats
		}
		stats.total++
		if ch.Split {
			stats.split++
		}
	}

	docIDs := make([]string, 0, len(docs))
	for id := range docs {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%d chunks", len(chunks)))
	for _, docID := range docIDs {
		branch := tree.AddBranch(docID)
		sections := docs[docID]
		ids := make([]int, 0, len(sections))
		for id := range sections {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			stats := sections[id]
			label := fmt.Sprintf("sec%d %s: %d chunks", id, stats.name, stats.total)
			if stats.split > 0 {
				label += fmt.Sprintf(" (%d split)", stats.split)
			}
			branch.AddNode(label)
		}
	}

	return tree.String()
}
