package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfmatch/internal/config"
	"github.com/hfmatch/internal/match"
	"github.com/hfmatch/internal/schema"
	"github.com/hfmatch/internal/table"
)

func dataset1() *table.Table {
	t := table.New("Region", "Zone", "Woreda", "Health Facilities")
	t.Append([]string{"Addis Ababa", "Bole", "Bole 01", "Bole Health Center"})
	t.Append([]string{"Oromia", "East Shewa", "Adama", "Adama General Hospital"})
	t.Append([]string{"Tigray", "Central", "Axum", "Axum Clinic"})
	return t
}

func dataset2() *table.Table {
	// Headers deliberately misspelled or renamed; all four still
	// resolve through fuzzy comparison and synonyms.
	t := table.New("Regiion", "zone_name", "Woredas", "health_facility")
	t.Append([]string{"addis ababa", "bole", "bole 01", "bole health center"})
	t.Append([]string{"Oromia", "East  Shewa", "Adama", "Adama Gen. Hospital"})
	t.Append([]string{"Somali", "Fafan", "Jigjiga", "Karamara Hospital"})
	return t
}

func TestMerge(t *testing.T) {
	run, err := New(config.Default(), nil).Merge(dataset1(), dataset2())
	require.NoError(t, err)

	assert.Equal(t, 2, run.Stats.Matched)
	assert.Equal(t, 1, run.Stats.UnmatchedLeft)
	assert.Equal(t, 1, run.Stats.UnmatchedRight)
	assert.False(t, run.Stats.EmptyPool)

	require.Equal(t, 2, run.Output.Merged.Len())
	exact := run.Output.Merged.Rows[0]
	assert.Equal(t, "Addis Ababa", exact.Get("Region"))
	assert.Equal(t, "addis ababa", exact.Get("ds2_Regiion"))
	assert.Equal(t, "100", exact.Get("match_score"))

	fuzzy := run.Output.Merged.Rows[1]
	assert.Equal(t, "Adama General Hospital", fuzzy.Get("Health Facilities"))
	assert.Equal(t, "Adama Gen. Hospital", fuzzy.Get("ds2_health_facility"))
	assert.Equal(t, "90", fuzzy.Get("match_score"))

	require.Equal(t, 1, run.Output.UnmatchedLeft.Len())
	assert.Equal(t, "Tigray", run.Output.UnmatchedLeft.Rows[0].Get("Region"))
	require.Equal(t, 1, run.Output.UnmatchedRight.Len())
	assert.Equal(t, "Somali", run.Output.UnmatchedRight.Rows[0].Get("Regiion"))

	col, ok := run.RightMapping.Column(schema.FieldRegion)
	require.True(t, ok)
	assert.Equal(t, "Regiion", col)
}

func TestMergePartitionTotals(t *testing.T) {
	run, err := New(config.Default(), nil).Merge(dataset1(), dataset2())
	require.NoError(t, err)

	assert.Equal(t, dataset1().Len(), run.Stats.Matched+run.Stats.UnmatchedLeft)
	assert.Equal(t, dataset2().Len(), run.Stats.Matched+run.Stats.UnmatchedRight)
	assert.Equal(t, run.Stats.Matched, run.Output.Merged.Len())
}

func TestMergeMissingColumnRejectsTable(t *testing.T) {
	bad := table.New("Region", "Zone", "Woreda", "Notes")
	bad.Append([]string{"Oromia", "East Shewa", "Adama", "n/a"})

	_, err := New(config.Default(), nil).Merge(dataset1(), bad)
	require.Error(t, err)

	var mfe *schema.MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, schema.FieldFacility, mfe.Field)
	assert.Equal(t, "dataset2", mfe.Dataset)
}

func TestMergeEmptyRightDataset(t *testing.T) {
	run, err := New(config.Default(), nil).Merge(dataset1(),
		table.New("Region", "Zone", "Woreda", "Health Facilities"))
	require.NoError(t, err)

	assert.True(t, run.Stats.EmptyPool)
	assert.Equal(t, 0, run.Stats.Matched)
	assert.Equal(t, 3, run.Stats.UnmatchedLeft)
}

func TestCorrect(t *testing.T) {
	input := table.New("Region", "Zone", "Woreda")
	input.Append([]string{"Oromiaa", "East Shewa", "adma"})
	input.Append([]string{"Tigray", "Central", "Axum"})

	ref := table.New("region", "zone", "woreda")
	ref.Append([]string{"Oromia", "East Shewa", "Adama"})
	ref.Append([]string{"Oromia", "East Shewa", "Lume"})
	ref.Append([]string{"Amhara", "North Shewa", "Debre Birhan"})

	run, err := New(config.Default(), nil).Correct(input, ref)
	require.NoError(t, err)

	assert.Equal(t, 1, run.Stats.Matched)
	assert.Equal(t, 1, run.Stats.UnmatchedLeft)

	require.Equal(t, 2, run.Output.Corrected.Len())
	fixed := run.Output.Corrected.Rows[0]
	assert.Equal(t, "Oromia", fixed.Get("std_region"))
	assert.Equal(t, "Adama", fixed.Get("std_woreda"))
	assert.Equal(t, "94", fixed.Get("region_zone_score"))
	assert.Equal(t, "80", fixed.Get("woreda_score"))

	failed := run.Output.Corrected.Rows[1]
	assert.Equal(t, "", failed.Get("std_region"))
	assert.Equal(t, "", failed.Get("woreda_score"))

	require.Equal(t, 1, run.Output.Unmatched.Len())
	assert.Equal(t, "Tigray", run.Output.Unmatched.Rows[0].Get("Region"))
}

func TestTune(t *testing.T) {
	points, err := New(config.Default(), nil).Tune(dataset1(), dataset2(), nil)
	require.NoError(t, err)

	require.Len(t, points, 11)
	assert.Equal(t, 50, points[0].Threshold)
	assert.Equal(t, 100, points[10].Threshold)
	for i := 1; i < len(points); i++ {
		assert.LessOrEqual(t, points[i].Matched, points[i-1].Matched)
	}
}

func TestTuneCustomRange(t *testing.T) {
	tuner := match.NewTuner(nil)
	tuner.Min, tuner.Max, tuner.Step = 70, 90, 10

	points, err := New(config.Default(), nil).Tune(dataset1(), dataset2(), tuner)
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, 70, points[0].Threshold)
	assert.Equal(t, 90, points[2].Threshold)
}
