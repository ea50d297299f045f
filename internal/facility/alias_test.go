package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFacilities() []*Facility {
	return []*Facility{
		{ID: 1, Name: "Badminton Court"},
		{ID: 2, Name: "Swimming Pool"},
		{ID: 3, Name: "Classroom 1"},
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"Badminton Court":  "badmintoncourt",
		" badminton_court": "badmintoncourt",
		"BADMINTON-COURT":  "badmintoncourt",
		"Classroom\tA":     "classrooma",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), "input %q", in)
	}
}

func TestBuildAliasTable(t *testing.T) {
	table, dropped := BuildAliasTable(sampleFacilities(), map[string]string{
		"badminton":  "Badminton Court",
		"classroomA": "classroom 1",
		"gym":        "Gym",
	})

	t.Run("facility names are their own aliases", func(t *testing.T) {
		f, ok := table.Lookup("swimming pool")
		require.True(t, ok)
		assert.Equal(t, int64(2), f.ID)
	})

	t.Run("configured aliases resolve case and spacing insensitively", func(t *testing.T) {
		f, ok := table.Lookup("Classroom_A")
		require.True(t, ok)
		assert.Equal(t, int64(3), f.ID)

		f, ok = table.Lookup("BADMINTON")
		require.True(t, ok)
		assert.Equal(t, "Badminton Court", f.Name)
	})

	t.Run("unknown targets are dropped", func(t *testing.T) {
		require.Len(t, dropped, 1)
		assert.Equal(t, "gym", dropped[0].Alias)
		assert.Equal(t, "unknown facility", dropped[0].Reason)

		_, ok := table.Lookup("gym")
		assert.False(t, ok)
	})

	t.Run("reverse mapping lists every key", func(t *testing.T) {
		assert.Equal(t, []string{"badminton", "badmintoncourt"}, table.AliasesFor(1))
		assert.Equal(t, []string{"classroom1", "classrooma"}, table.AliasesFor(3))
		assert.Empty(t, table.AliasesFor(99))
	})
}

func TestBuildAliasTableClash(t *testing.T) {
	_, dropped := BuildAliasTable(sampleFacilities(), map[string]string{
		"swimming pool": "Badminton Court",
	})

	require.Len(t, dropped, 1)
	assert.Equal(t, "alias already bound", dropped[0].Reason)
}
