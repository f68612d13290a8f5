package ingest

import "fmt"

// SectionInfo describes one 10-K item as it appears in the export.
type SectionInfo struct {
	Name     string
	Priority string
}

// sectionMetadata maps the numeric section code of the export to a
// readable name and a retrieval priority tier. Notes to Financials is
// the bulk of the corpus, hence the highest tier.
var sectionMetadata = map[int]SectionInfo{
	0:  {Name: "Business", Priority: "high"},
	1:  {Name: "Risk Factors", Priority: "high"},
	2:  {Name: "Unresolved Comments", Priority: "low"},
	3:  {Name: "Properties", Priority: "medium"},
	4:  {Name: "Legal Proceedings", Priority: "medium"},
	5:  {Name: "Mine Safety", Priority: "low"},
	6:  {Name: "Market for Stock", Priority: "medium"},
	7:  {Name: "Reserved", Priority: "low"},
	8:  {Name: "MD&A", Priority: "high"},
	9:  {Name: "Financial Statements", Priority: "high"},
	10: {Name: "Notes to Financials", Priority: "highest"},
	11: {Name: "Market Risk", Priority: "medium"},
	12: {Name: "Controls", Priority: "medium"},
	13: {Name: "Unknown", Priority: "low"},
	19: {Name: "Exhibits", Priority: "low"},
}

// SectionName returns the readable name of a section code, or a
// Section_<n> placeholder for codes outside the table.
func SectionName(section int) string {
	if info, ok := sectionMetadata[section]; ok {
		return info.Name
	}
	return fmt.Sprintf("Section_%d", section)
}

// SectionPriority returns the priority tier of a section code,
// "unknown" for codes outside the table.
func SectionPriority(section int) string {
	if info, ok := sectionMetadata[section]; ok {
		return info.Priority
	}
	return "unknown"
}
