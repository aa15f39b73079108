package workerproc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/kentwait/epidemicsim/internal/jobspec"
	"github.com/kentwait/epidemicsim/internal/wire"
	"github.com/kentwait/epidemicsim/internal/world"
)

func TestExecuteRejectsOversizedPopulation(t *testing.T) {
	measure := wire.ResourceMeasure{MaxWorldParams: 100, MaxResource: 10}
	rt := NewRuntime("/bin/true", t.TempDir(), measure, zap.NewNop())

	req := wire.ExecuteRequest{
		Config: jobspec.JobConfig{
			World: world.WorldParams{InitNPop: 1000},
		},
	}
	err := rt.Execute(context.Background(), "task-1", req)
	assert.ErrorIs(t, err, wire.ErrResourceSizeExceeded)
}

func TestTerminateUnknownTaskReturnsNotFound(t *testing.T) {
	rt := NewRuntime("/bin/true", t.TempDir(), wire.ResourceMeasure{}, zap.NewNop())
	err := rt.Terminate("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadStatisticsUnknownTaskReturnsNotFound(t *testing.T) {
	rt := NewRuntime("/bin/true", t.TempDir(), wire.ResourceMeasure{}, zap.NewNop())
	_, err := rt.ReadStatistics(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMeasureReturnsConfiguredResourceMeasure(t *testing.T) {
	measure := wire.ResourceMeasure{MaxWorldParams: 500, MaxResource: 50}
	rt := NewRuntime("/bin/true", t.TempDir(), measure, zap.NewNop())
	assert.Equal(t, measure, rt.Measure())
}
