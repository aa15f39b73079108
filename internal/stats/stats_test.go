package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentwait/epidemicsim/internal/world"
)

func TestWriteReadRoundTrip(t *testing.T) {
	rows := []Row{
		{100, 5, 3, 0, 0, 0},
		{98, 4, 2, 4, 0, 1},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("nope")))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestWriteCSVHeaderMatchesScenario(t *testing.T) {
	rows := []Row{{100, 5, 3, 0, 0, 0}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	want := "Susceptible,Asymptomatic,Symptomatic,Recovered,Died,Vaccinated\n100,5,3,0,0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestFromStepLogPreservesColumnLayout(t *testing.T) {
	log := world.NewStepLog()
	log.Rows = append(log.Rows, world.Row{10, 2, 1, 0, 0, 0})

	rows := FromStepLog(log)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{10, 2, 1, 0, 0, 0}, rows[0])
}
