package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/lobex/internal/common"
)

func TestExecRing_PushAndLastOldestFirst(t *testing.T) {
	r := newExecRing()
	r.push(common.Execution{ExecID: "1"})
	r.push(common.Execution{ExecID: "2"})

	last := r.last(0)
	require.Len(t, last, 2)
	assert.Equal(t, "1", last[0].ExecID)
	assert.Equal(t, "2", last[1].ExecID)
}

func TestExecRing_EvictsOldestOnOverflow(t *testing.T) {
	r := &execRing{buf: make([]common.Execution, 2)}
	r.push(common.Execution{ExecID: "1"})
	r.push(common.Execution{ExecID: "2"})
	r.push(common.Execution{ExecID: "3"})

	last := r.last(0)
	require.Len(t, last, 2)
	assert.Equal(t, "2", last[0].ExecID)
	assert.Equal(t, "3", last[1].ExecID)
}

func TestRecentExecutions_PushAndLastPerSymbol(t *testing.T) {
	r := NewRecentExecutions()
	r.Push(common.Execution{ExecID: "a1", Symbol: "AAPL"})
	r.Push(common.Execution{ExecID: "m1", Symbol: "MSFT"})
	r.Push(common.Execution{ExecID: "a2", Symbol: "AAPL"})

	aapl := r.Last("AAPL", 0)
	require.Len(t, aapl, 2)
	assert.Equal(t, "a1", aapl[0].ExecID)
	assert.Equal(t, "a2", aapl[1].ExecID)

	msft := r.Last("MSFT", 0)
	require.Len(t, msft, 1)
}

func TestRecentExecutions_UnknownSymbolReturnsNil(t *testing.T) {
	r := NewRecentExecutions()
	assert.Nil(t, r.Last("GOOG", 0))
}
