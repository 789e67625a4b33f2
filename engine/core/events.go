package core

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/ombra/engine/containers"
)

type EventContext struct {
	// payload slots, interpretation depends on the event code
	Data struct {
		U32 [4]uint32
		F32 [4]float32
		Str string
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Keyboard key pressed.
	/* Context usage:
	 * key_code = data.U32[0];
	 */
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02

	// Keyboard key released.
	/* Context usage:
	 * key_code = data.U32[0];
	 */
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * width = data.U32[0];
	 * height = data.U32[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// A watched scene description file changed on disk.
	/* Context usage:
	 * path = data.Str;
	 */
	EVENT_CODE_SCENE_FILE_CHANGED SystemEventCode = 0x10

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Pending events not yet drained by ProcessEvents. Watcher goroutines fire
// events too, so the queue is guarded.
const maxPendingEvents = 1024

// Should return true if handled; handled events are not passed on to
// further listeners.
type FnOnEvent func(data EventContext) bool

type registeredEvent struct {
	id       uint32
	callback FnOnEvent
}

type queuedEvent struct {
	code    SystemEventCode
	context EventContext
}

type eventSystemState struct {
	mu         sync.Mutex
	registered map[SystemEventCode][]registeredEvent
	pending    *containers.RingQueue[queuedEvent]
	nextID     uint32
}

var onceEvent sync.Once
var eventState *eventSystemState = nil

func EventSystemInitialize() error {
	onceEvent.Do(func() {
		eventState = &eventSystemState{
			registered: make(map[SystemEventCode][]registeredEvent),
			pending:    containers.NewRingQueue[queuedEvent](maxPendingEvents),
		}
	})
	return nil
}

func EventSystemShutdown() error {
	if eventState == nil {
		return nil
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	eventState.registered = make(map[SystemEventCode][]registeredEvent)
	eventState.pending = containers.NewRingQueue[queuedEvent](maxPendingEvents)
	return nil
}

// Register to listen for when events are sent with the provided code.
// Returns a registration id usable with EventUnregister.
func EventRegister(code SystemEventCode, onEvent FnOnEvent) uint32 {
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	eventState.nextID++
	id := eventState.nextID
	eventState.registered[code] = append(eventState.registered[code], registeredEvent{
		id:       id,
		callback: onEvent,
	})
	return id
}

// Unregister from listening for when events are sent with the provided code.
// If no matching registration is found, this function returns false.
func EventUnregister(code SystemEventCode, id uint32) bool {
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	listeners := eventState.registered[code]
	for i, e := range listeners {
		if e.id == id {
			eventState.registered[code] = append(listeners[:i], listeners[i+1:]...)
			return true
		}
	}
	return false
}

// EventFire queues an event for the next ProcessEvents call. Safe to call
// from any goroutine (platform callbacks, file watchers).
func EventFire(code SystemEventCode, context EventContext) error {
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	if err := eventState.pending.Enqueue(queuedEvent{code: code, context: context}); err != nil {
		err = fmt.Errorf("event queue full, dropping event code 0x%02x: %w", uint16(code), err)
		LogError(err.Error())
		return err
	}
	return nil
}

// ProcessEvents drains the pending queue and dispatches each event to its
// listeners in registration order. Must run on the tick goroutine so all
// listener-driven mutation stays single threaded. Events fired by handlers
// are deferred to the next call.
func ProcessEvents() {
	eventState.mu.Lock()
	n := eventState.pending.Len()
	eventState.mu.Unlock()

	for i := 0; i < n; i++ {
		eventState.mu.Lock()
		ev, err := eventState.pending.Dequeue()
		if err != nil {
			eventState.mu.Unlock()
			return
		}
		listeners := make([]registeredEvent, len(eventState.registered[ev.code]))
		copy(listeners, eventState.registered[ev.code])
		eventState.mu.Unlock()

		for _, e := range listeners {
			if e.callback(ev.context) {
				// Message has been handled, do not send to other listeners.
				break
			}
		}
	}
}
