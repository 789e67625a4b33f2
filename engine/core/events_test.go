package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueueAndDispatch(t *testing.T) {
	require.NoError(t, EventSystemInitialize())
	t.Cleanup(func() { _ = EventSystemShutdown() })

	var got []uint32
	id := EventRegister(EVENT_CODE_RESIZED, func(data EventContext) bool {
		got = append(got, data.Data.U32[0])
		return false
	})
	defer EventUnregister(EVENT_CODE_RESIZED, id)

	ctx := EventContext{}
	ctx.Data.U32[0] = 800
	require.NoError(t, EventFire(EVENT_CODE_RESIZED, ctx))

	// nothing dispatched until the tick drains the queue
	assert.Empty(t, got)

	ProcessEvents()
	assert.Equal(t, []uint32{800}, got)

	// queue is drained, a second pass is a no-op
	ProcessEvents()
	assert.Equal(t, []uint32{800}, got)
}

func TestEventHandledStopsChain(t *testing.T) {
	require.NoError(t, EventSystemInitialize())
	t.Cleanup(func() { _ = EventSystemShutdown() })

	first, second := 0, 0
	idA := EventRegister(EVENT_CODE_APPLICATION_QUIT, func(EventContext) bool {
		first++
		return true
	})
	idB := EventRegister(EVENT_CODE_APPLICATION_QUIT, func(EventContext) bool {
		second++
		return false
	})
	defer EventUnregister(EVENT_CODE_APPLICATION_QUIT, idA)
	defer EventUnregister(EVENT_CODE_APPLICATION_QUIT, idB)

	require.NoError(t, EventFire(EVENT_CODE_APPLICATION_QUIT, EventContext{}))
	ProcessEvents()

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
}

func TestEventUnregister(t *testing.T) {
	require.NoError(t, EventSystemInitialize())
	t.Cleanup(func() { _ = EventSystemShutdown() })

	calls := 0
	id := EventRegister(EVENT_CODE_KEY_PRESSED, func(EventContext) bool {
		calls++
		return false
	})

	assert.True(t, EventUnregister(EVENT_CODE_KEY_PRESSED, id))
	assert.False(t, EventUnregister(EVENT_CODE_KEY_PRESSED, id))

	require.NoError(t, EventFire(EVENT_CODE_KEY_PRESSED, EventContext{}))
	ProcessEvents()
	assert.Equal(t, 0, calls)
}
