package wire

import "github.com/kentwait/epidemicsim/internal/jobspec"

// MessageKind tags a Request/Response so the receiving side can dispatch
// without a type switch over concrete wire types.
type MessageKind uint8

const (
	KindExecute MessageKind = iota + 1
	KindTerminate
	KindReadStatistics
	KindRemoveStatistics
	KindHello
)

// Request is the envelope sent controller -> worker for every RPC in §4.5.
type Request struct {
	Kind MessageKind

	JobID  string
	TaskID string

	Execute ExecuteRequest
}

// ExecuteRequest carries everything a worker needs to spawn and drive a
// child world process for one task.
type ExecuteRequest struct {
	Config         jobspec.JobConfig
	IterationCount int
}

// Response is the envelope sent worker -> controller.
type Response struct {
	Kind MessageKind
	OK   bool
	Err  string

	Hello      HelloResponse
	Statistics StatisticsResponse
}

// HelloResponse is sent once, immediately after a worker connects, carrying
// its advertised resource capacity (§4.8 "hello stream").
type HelloResponse struct {
	WorkerIndex int
	Measure     ResourceMeasure
}

// StatisticsResponse carries a completed task's statistics inline: one row
// per simulation step, each row holding the counts in stats.Columns order.
type StatisticsResponse struct {
	Rows [][]int64
}
