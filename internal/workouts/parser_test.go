package workouts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	csv := `date,type,duration,distance,notes
2024-05-20,Run,28,5.2,easy pace
2024-05-21,swim,40,1.5,
2024-05-22,cycle,65,20`

	rows, rowErrors, err := Parse(csv)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "2024-05-20", rows[0].Date)
	// type comes back lowercased
	assert.Equal(t, "run", rows[0].Type)
	assert.Equal(t, 28, rows[0].Duration)
	assert.True(t, rows[0].Distance.Equal(decimal.RequireFromString("5.2")))
	assert.Equal(t, "easy pace", rows[0].Notes)

	// missing trailing values default to empty
	assert.Equal(t, "", rows[2].Notes)
}

func TestParse_InvalidDuration(t *testing.T) {
	csv := `date,type,duration
2024-05-20,run,28
2024-05-21,run,abc`

	rows, rowErrors, err := Parse(csv)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rowErrors, 1)
	// the header is row 1, the bad line is row 3
	assert.Equal(t, "Row 3: Invalid duration", rowErrors[0])
}

func TestParse_MissingRequiredFields(t *testing.T) {
	csv := `date,type,duration
,run,28
2024-05-21,,30
2024-05-22,run,`

	rows, rowErrors, err := Parse(csv)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, []string{
		"Row 2: Missing required fields",
		"Row 3: Missing required fields",
		"Row 4: Missing required fields",
	}, rowErrors)
}

func TestParse_MissingHeader(t *testing.T) {
	csv := `date,type
2024-05-20,run`

	rows, rowErrors, err := Parse(csv)
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Nil(t, rows)
	assert.Nil(t, rowErrors)
	assert.Equal(t, "CSV must have columns: date, type, duration", err.Error())
}

func TestParse_HeaderAnyOrderAndWhitespace(t *testing.T) {
	csv := ` duration , type , date
 30 , Run , 2024-05-20 `

	rows, rowErrors, err := Parse(csv)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-05-20", rows[0].Date)
	assert.Equal(t, "run", rows[0].Type)
	assert.Equal(t, 30, rows[0].Duration)
}

func TestParse_SkipsBlankLines(t *testing.T) {
	csv := "date,type,duration\n\n2024-05-20,run,30\n\n\n2024-05-24,run,abc\n"

	rows, rowErrors, err := Parse(csv)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rowErrors, 1)
	// line numbers count blank lines too
	assert.Equal(t, "Row 6: Invalid duration", rowErrors[0])
}

func TestParse_UnparsableDistanceDefaultsToZero(t *testing.T) {
	csv := `date,type,duration,distance
2024-05-20,run,30,around 5k`

	rows, rowErrors, err := Parse(csv)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Distance.IsZero())
}
