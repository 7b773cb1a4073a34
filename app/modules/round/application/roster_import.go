package roundservice

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils/results"
	"github.com/xuri/excelize/v2"
)

// RosterImport is the parsed form of an uploaded roster workbook, ready for
// caller review before launch.
type RosterImport struct {
	Roster []roundtypes.RosterEntry  `json:"roster"`
	Groups []roundtypes.GroupRequest `json:"groups"`
}

// ParseRoster parses an XLSX roster workbook: one row per player with name,
// optional handicap index, optional group number, and optional marker flag.
// Parsing never writes to the store.
func (s *RoundService) ParseRoster(ctx context.Context, data []byte) (*RosterImport, error) {
	result, err := withTelemetry(s, ctx, "ParseRoster", "", func(ctx context.Context) (results.OperationResult[*RosterImport, error], error) {
		imported, err := parseRosterWorkbook(data)
		if err != nil {
			if IsValidationError(err) {
				return results.FailureResult[*RosterImport, error](err), nil
			}
			return results.OperationResult[*RosterImport, error]{}, err
		}
		return results.SuccessResult[*RosterImport, error](imported), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

func parseRosterWorkbook(data []byte) (*RosterImport, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, NewValidationError("file is not a readable XLSX workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, NewValidationError("sheet %q is empty", sheets[0])
	}

	cols, start := rosterColumns(rows[0])

	imported := &RosterImport{}
	byGroup := map[int][]sharedtypes.PlayerID{}
	markers := map[int]sharedtypes.PlayerID{}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		name := strings.TrimSpace(cell(row, cols.name))
		if name == "" {
			continue
		}

		entry := roundtypes.RosterEntry{
			PlayerID:    sharedtypes.PlayerID(fmt.Sprintf("import-%d", i)),
			DisplayName: name,
		}

		if raw := cell(row, cols.handicap); raw != "" {
			hcp, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, NewValidationError("row %d: handicap %q is not a number", i+1, raw)
			}
			entry.HandicapIndex = &hcp
		}

		groupNum := 1
		if raw := cell(row, cols.group); raw != "" {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || n < 1 {
				return nil, NewValidationError("row %d: group %q is not a positive number", i+1, raw)
			}
			groupNum = n
		}

		imported.Roster = append(imported.Roster, entry)
		byGroup[groupNum] = append(byGroup[groupNum], entry.PlayerID)

		if isTruthy(cell(row, cols.marker)) {
			markers[groupNum] = entry.PlayerID
		}
	}

	if len(imported.Roster) == 0 {
		return nil, NewValidationError("no player rows found in workbook")
	}

	groupNums := make([]int, 0, len(byGroup))
	for n := range byGroup {
		groupNums = append(groupNums, n)
	}
	sort.Ints(groupNums)

	for _, n := range groupNums {
		playerIDs := byGroup[n]
		marker, ok := markers[n]
		if !ok {
			// Default the first listed player to scorer; the caller reviews
			// before launch.
			marker = playerIDs[0]
		}
		imported.Groups = append(imported.Groups, roundtypes.GroupRequest{
			GroupID:      sharedtypes.GroupID(fmt.Sprintf("group-%d", n)),
			GroupName:    fmt.Sprintf("Group %d", n),
			PlayerIDs:    playerIDs,
			MarkerID:     marker,
			StartingHole: 1,
		})
	}

	return imported, nil
}

type rosterCols struct {
	name     int
	handicap int
	group    int
	marker   int
}

// rosterColumns maps header names to column indexes. Headerless sheets fall
// back to positional columns starting at the first row.
func rosterColumns(header []string) (rosterCols, int) {
	cols := rosterCols{name: 0, handicap: 1, group: 2, marker: 3}
	matched := false
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "player", "player name":
			cols.name = i
			matched = true
		case "handicap", "hcp", "handicap index":
			cols.handicap = i
			matched = true
		case "group", "group number":
			cols.group = i
			matched = true
		case "marker", "scorer":
			cols.marker = i
			matched = true
		}
	}
	if matched {
		return cols, 1
	}
	return cols, 0
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "true", "1", "x", "marker":
		return true
	}
	return false
}
