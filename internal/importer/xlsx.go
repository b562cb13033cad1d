package importer

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
)

// Workbook layout: one sheet per level (classes, subjects, topics,
// lessons, chunks) plus an optional keywords sheet whose rows are
// grouped onto their chunk. A row may carry an import_key alias; other
// rows can reference it in any *_map column, which lets a workbook link
// rows without repeating long map keys. Aliases are collected in a
// first pass and resolved in a second.

var keywordSeparators = []string{";", "|", ","}

// ParseWorkbook reads an xlsx stream into a Batch. The batch is not
// normalized; callers run Batch.Normalize (the runner does).
func ParseWorkbook(r io.Reader) (*Batch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierr.Validation("cannot read workbook: %v", err)
	}
	defer f.Close()

	sheets := map[string][][]string{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, apierr.Validation("cannot read sheet %q: %v", name, err)
		}
		sheets[strings.ToLower(strings.TrimSpace(name))] = rows
	}

	// Pass 1: alias table.
	aliases := map[string]string{}
	for _, sheet := range []struct {
		name string
		key  string
	}{
		{"classes", "class_map"},
		{"subjects", "subject_map"},
		{"topics", "topic_map"},
		{"lessons", "lesson_map"},
		{"chunks", "chunk_map"},
	} {
		rows, ok := sheets[sheet.name]
		if !ok || len(rows) < 2 {
			continue
		}
		cols := headerIndex(rows[0])
		for _, row := range rows[1:] {
			alias := cell(row, cols, "import_key")
			mapKey := cell(row, cols, sheet.key)
			if alias != "" && mapKey != "" {
				aliases[alias] = mapKey
			}
		}
	}
	resolve := func(v string) string {
		if real, ok := aliases[v]; ok {
			return real
		}
		return v
	}

	// Pass 2: rows.
	b := &Batch{}

	if rows, ok := sheets["classes"]; ok && len(rows) > 1 {
		cols := headerIndex(rows[0])
		for _, row := range rows[1:] {
			mapKey := resolve(cell(row, cols, "class_map"))
			if mapKey == "" {
				continue
			}
			b.Classes = append(b.Classes, ClassRow{
				ClassMap: mapKey,
				Name:     cell(row, cols, "name"),
			})
		}
	}
	if rows, ok := sheets["subjects"]; ok && len(rows) > 1 {
		cols := headerIndex(rows[0])
		for _, row := range rows[1:] {
			mapKey := resolve(cell(row, cols, "subject_map"))
			if mapKey == "" {
				continue
			}
			b.Subjects = append(b.Subjects, SubjectRow{
				SubjectMap: mapKey,
				ClassMap:   resolve(cell(row, cols, "class_map")),
				Name:       cell(row, cols, "name"),
				Title:      cell(row, cols, "title"),
				URL:        cell(row, cols, "url"),
				Category:   cell(row, cols, "category"),
			})
		}
	}
	if rows, ok := sheets["topics"]; ok && len(rows) > 1 {
		cols := headerIndex(rows[0])
		for _, row := range rows[1:] {
			mapKey := resolve(cell(row, cols, "topic_map"))
			if mapKey == "" {
				continue
			}
			b.Topics = append(b.Topics, TopicRow{
				TopicMap: mapKey,
				Name:     cell(row, cols, "name"),
				Number:   cell(row, cols, "number"),
				URL:      cell(row, cols, "url"),
				Category: cell(row, cols, "category"),
			})
		}
	}
	if rows, ok := sheets["lessons"]; ok && len(rows) > 1 {
		cols := headerIndex(rows[0])
		for _, row := range rows[1:] {
			mapKey := resolve(cell(row, cols, "lesson_map"))
			if mapKey == "" {
				continue
			}
			b.Lessons = append(b.Lessons, LessonRow{
				LessonMap: mapKey,
				Name:      cell(row, cols, "name"),
				Number:    cell(row, cols, "number"),
				Type:      cell(row, cols, "type"),
				URL:       cell(row, cols, "url"),
				Category:  cell(row, cols, "category"),
			})
		}
	}
	if rows, ok := sheets["chunks"]; ok && len(rows) > 1 {
		cols := headerIndex(rows[0])
		for _, row := range rows[1:] {
			mapKey := resolve(cell(row, cols, "chunk_map"))
			if mapKey == "" {
				continue
			}
			b.Chunks = append(b.Chunks, ChunkRow{
				ChunkMap:    mapKey,
				Name:        cell(row, cols, "name"),
				Number:      cell(row, cols, "number"),
				Type:        cell(row, cols, "type"),
				URL:         cell(row, cols, "url"),
				Description: cell(row, cols, "description"),
				Category:    cell(row, cols, "category"),
				Keywords:    splitKeywords(cell(row, cols, "keywords")),
			})
		}
	}

	// Keyword sheet rows fold into their chunk, creating a bare chunk
	// row when the workbook has none.
	if rows, ok := sheets["keywords"]; ok && len(rows) > 1 {
		cols := headerIndex(rows[0])
		for _, row := range rows[1:] {
			chunkMap := resolve(cell(row, cols, "chunk_map"))
			keyword := cell(row, cols, "keyword")
			if chunkMap == "" || keyword == "" {
				continue
			}
			attachKeyword(b, chunkMap, keyword)
		}
	}

	for i := range b.Chunks {
		b.Chunks[i].Keywords = dedupeStrings(b.Chunks[i].Keywords)
	}

	if b.Empty() {
		return nil, apierr.Validation("workbook contains no importable rows")
	}
	return b, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			cols[h] = i
		}
	}
	return cols
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	sep := keywordSeparators[0]
	for _, candidate := range keywordSeparators {
		if strings.Contains(raw, candidate) {
			sep = candidate
			break
		}
	}
	var out []string
	for _, part := range strings.Split(raw, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func attachKeyword(b *Batch, chunkMap, keyword string) {
	for i := range b.Chunks {
		if b.Chunks[i].ChunkMap == chunkMap {
			b.Chunks[i].Keywords = append(b.Chunks[i].Keywords, keyword)
			return
		}
	}
	b.Chunks = append(b.Chunks, ChunkRow{ChunkMap: chunkMap, Keywords: []string{keyword}})
}

func dedupeStrings(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
