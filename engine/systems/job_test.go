package systems

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

func waitForSignal(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish in time")
	}
}

func TestJobSystemRunsSubmittedJob(t *testing.T) {
	js, err := NewJobSystem(1, 4)
	require.NoError(t, err)
	defer js.Shutdown()

	done := make(chan struct{})
	var got interface{}

	js.Submit(metadata.JobTask{
		JobType:     metadata.JOB_TYPE_GENERAL,
		Priority:    metadata.JOB_PRIORITY_NORMAL,
		InputParams: []interface{}{21},
		OnStart: func(params interface{}, resultChan chan<- interface{}) error {
			values := params.([]interface{})
			resultChan <- values[0].(int) * 2
			return nil
		},
		OnComplete: func(paramsChan <-chan interface{}) {
			got = <-paramsChan
		},
		OnCompletionCallback: func() {
			close(done)
		},
	})

	waitForSignal(t, done)
	assert.Equal(t, 42, got)
}

func TestJobSystemRoutesFailures(t *testing.T) {
	js, err := NewJobSystem(1, 4)
	require.NoError(t, err)
	defer js.Shutdown()

	done := make(chan struct{})
	var failed atomic.Bool
	var completed atomic.Bool

	js.Submit(metadata.JobTask{
		JobType: metadata.JOB_TYPE_RESOURCE_LOAD,
		OnStart: func(params interface{}, resultChan chan<- interface{}) error {
			return fmt.Errorf("disk on fire")
		},
		OnComplete: func(paramsChan <-chan interface{}) {
			completed.Store(true)
		},
		OnFailure: func(paramsChan <-chan interface{}) {
			failed.Store(true)
		},
		OnCompletionCallback: func() {
			close(done)
		},
	})

	waitForSignal(t, done)
	assert.True(t, failed.Load())
	assert.False(t, completed.Load())
}

func TestJobSystemShutdownWaitsForQueuedJobs(t *testing.T) {
	js, err := NewJobSystem(2, 16)
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		js.Submit(metadata.JobTask{
			OnStart: func(params interface{}, resultChan chan<- interface{}) error {
				ran.Add(1)
				return nil
			},
		})
	}

	require.NoError(t, js.Shutdown())
	assert.Equal(t, int32(10), ran.Load())
}

func TestJobSystemRejectsInvalidConfig(t *testing.T) {
	_, err := NewJobSystem(0, 4)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}
