package workouts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMissingColumns is the structural import failure: without the required
// header columns no row can be interpreted, nothing gets persisted.
var ErrMissingColumns = errors.New("CSV must have columns: date, type, duration")

var requiredColumns = []string{"date", "type", "duration"}

// Row is one successfully parsed CSV line. Line is the 1-based source line
// number including the header, so persistence failures can be reported
// against the original file.
type Row struct {
	Line     int
	Date     string
	Type     string
	Duration int
	Distance decimal.Decimal
	Notes    string
}

// Parse converts delimited workout text into rows. Plain split-on-comma
// semantics, no quoting or escaping support. The first line is the header,
// each header name maps positionally to the values of the data lines,
// missing trailing values default to empty. One bad row never aborts the
// batch, its error is recorded as "Row N: <reason>" and parsing continues.
func Parse(csvText string) (rows []Row, rowErrors []string, err error) {
	lines := strings.Split(strings.TrimSpace(csvText), "\n")

	headers := splitAndTrim(lines[0])
	headerSet := map[string]bool{}
	for _, h := range headers {
		headerSet[h] = true
	}
	for _, required := range requiredColumns {
		if !headerSet[required] {
			return nil, nil, ErrMissingColumns
		}
	}

	rowErrors = []string{}
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		lineNum := i + 1

		values := splitAndTrim(line)
		fields := map[string]string{}
		for j, header := range headers {
			if j < len(values) {
				fields[header] = values[j]
			} else {
				fields[header] = ""
			}
		}

		if fields["date"] == "" || fields["type"] == "" || fields["duration"] == "" {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Missing required fields", lineNum))
			continue
		}

		duration, err := strconv.Atoi(fields["duration"])
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Invalid duration", lineNum))
			continue
		}

		distance, err := decimal.NewFromString(fields["distance"])
		if err != nil {
			distance = decimal.Zero
		}

		rows = append(rows, Row{
			Line:     lineNum,
			Date:     fields["date"],
			Type:     strings.ToLower(fields["type"]),
			Duration: duration,
			Distance: distance,
			Notes:    fields["notes"],
		})
	}

	return rows, rowErrors, nil
}

func splitAndTrim(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
