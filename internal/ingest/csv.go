package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domcategory "github.com/sibyl-dev/sibyl/internal/domain/category"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	domgroup "github.com/sibyl-dev/sibyl/internal/domain/group"
)

// Reserved entity CSV columns. Everything else is a feature value.
const (
	colEID   = "eid"
	colRowID = "row_id"
	colLabel = "y"
)

// readCSV parses a headered CSV file into one map per record.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, name := range header {
			record[name] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}

func readCategories(path string) ([]domcategory.Category, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	categories := make([]domcategory.Category, 0, len(records))
	for _, record := range records {
		c, err := domcategory.New(record["name"], record["color"], record["abbreviation"])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func readGroups(path string) ([]domgroup.Group, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	groups := make([]domgroup.Group, 0, len(records))
	for _, record := range records {
		property := make(map[string]any, len(record)-1)
		for key, val := range record {
			if key != "group_id" {
				property[key] = val
			}
		}
		g, err := domgroup.New(record["group_id"], property)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func readTerms(path string) (map[string]any, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	terms := make(map[string]any, len(records))
	for _, record := range records {
		key, ok := record["key"]
		if !ok || key == "" {
			return nil, fmt.Errorf("%s: terms need key and term columns", path)
		}
		terms[key] = record["term"]
	}
	return terms, nil
}

// readEntities reshapes the flat CSV into entities: rows sharing an eid
// become one multi-row entity, ordered as they appear in the file. The
// returned labeled list names eids carrying a label on every row.
func readEntities(path string) ([]domentity.Entity, []string, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}

	var eids []string
	rowIDs := map[string][]string{}
	features := map[string]map[string]map[string]domain.Value{}
	labels := map[string]map[string]domain.Value{}

	for i, record := range records {
		eid := record[colEID]
		if eid == "" {
			return nil, nil, fmt.Errorf("%s: record %d has no eid", path, i+1)
		}
		if _, seen := features[eid]; !seen {
			eids = append(eids, eid)
			features[eid] = map[string]map[string]domain.Value{}
			labels[eid] = map[string]domain.Value{}
		}

		rowID := record[colRowID]
		if rowID == "" {
			rowID = fmt.Sprintf("r%d", len(rowIDs[eid])+1)
		}
		rowIDs[eid] = append(rowIDs[eid], rowID)

		cells := make(map[string]domain.Value, len(record))
		for name, raw := range record {
			if name == colEID || name == colRowID || name == colLabel {
				continue
			}
			cells[name] = parseValue(raw)
		}
		features[eid][rowID] = cells

		if raw, ok := record[colLabel]; ok && raw != "" {
			labels[eid][rowID] = parseValue(raw)
		}
	}

	entities := make([]domentity.Entity, 0, len(eids))
	var labeled []string
	for _, eid := range eids {
		entityLabels := labels[eid]
		if len(entityLabels) == 0 {
			entityLabels = nil
		}
		e, err := domentity.New(eid, rowIDs[eid], features[eid], entityLabels, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		entities = append(entities, e)
		if len(entityLabels) == len(rowIDs[eid]) && entityLabels != nil {
			labeled = append(labeled, eid)
		}
	}
	return entities, labeled, nil
}

// parseValue coerces a CSV cell: numbers and booleans keep their kind,
// everything else stays a string.
func parseValue(raw string) domain.Value {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return domain.Num(f)
	}
	if raw == "true" || raw == "false" {
		return domain.Bool(raw == "true")
	}
	return domain.Str(raw)
}
