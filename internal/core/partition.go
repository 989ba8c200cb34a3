package core

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Partition splits master rows by section.
//
// Sections are the distinct non-blank values in order of first appearance.
// Rows within a section are stably sorted by roll number and renumbered from
// 1. A section with no rows is never emitted.
func Partition(master []MasterRow) []SectionPartition {
	var sections []string
	seen := make(map[string]bool)
	for _, r := range master {
		if r.Section == "" || seen[r.Section] {
			continue
		}
		seen[r.Section] = true
		sections = append(sections, r.Section)
	}

	out := make([]SectionPartition, 0, len(sections))
	for _, section := range sections {
		var rows []MasterRow
		for _, r := range master {
			if r.Section == section {
				rows = append(rows, r)
			}
		}
		if len(rows) == 0 {
			continue
		}

		// Roll numbers are text; "10" sorts before "2".
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].RollNo < rows[j].RollNo
		})
		for i := range rows {
			rows[i].RollNo = strconv.Itoa(i + 1)
		}
		out = append(out, SectionPartition{Section: section, Rows: rows})
	}
	return out
}

var unsafePathChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

// SafeSectionName replaces characters that cannot appear in a file name.
func SafeSectionName(section string) string {
	return unsafePathChars.Replace(section)
}

// SectionFileName returns the workbook name for a section.
func SectionFileName(section string) string {
	return "Division_" + SafeSectionName(section) + ".xlsx"
}

// maxSheetName is the longest worksheet name a workbook accepts.
const maxSheetName = 31

var unsafeSheetChars = strings.NewReplacer("?", "_", "*", "_", "[", "_", "]", "_")

// SectionSheetName returns the worksheet name for a section.
func SectionSheetName(section string) string {
	name := "Division " + unsafeSheetChars.Replace(SafeSectionName(section))
	if utf8.RuneCountInString(name) <= maxSheetName {
		return name
	}
	return string([]rune(name)[:maxSheetName])
}
