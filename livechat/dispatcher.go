package livechat

import (
	"sync"
	"time"
)

// Dispatcher routes decoded frames and state changes to registered callbacks.
type Dispatcher struct {
	mu        sync.RWMutex
	onMessage func(ChatMessage)
	onError   func(error)
	onState   func(StateEvent)
}

func (d *Dispatcher) SetOnMessage(fn func(ChatMessage)) { d.set(func() { d.onMessage = fn }) }
func (d *Dispatcher) SetOnError(fn func(error))         { d.set(func() { d.onError = fn }) }
func (d *Dispatcher) SetOnState(fn func(StateEvent))    { d.set(func() { d.onState = fn }) }

func (d *Dispatcher) set(apply func()) {
	d.mu.Lock()
	apply()
	d.mu.Unlock()
}

// Dispatch decodes one inbound frame received at the given time. A frame that
// fails to decode is reported through the error callback and dropped.
func (d *Dispatcher) Dispatch(data []byte, selfID int64, receivedAt time.Time) error {
	frame, err := decodeFrame(data)
	if err != nil {
		werr := WrapError(ErrorSerialization, "failed to decode chat frame", err)
		d.fireError(werr)
		return werr
	}
	d.mu.RLock()
	fn := d.onMessage
	d.mu.RUnlock()
	if fn != nil {
		fn(messageFromFrame(frame, selfID, receivedAt))
	}
	return nil
}

// DispatchState forwards a state transition.
func (d *Dispatcher) DispatchState(ev StateEvent) {
	d.mu.RLock()
	fn := d.onState
	d.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

func (d *Dispatcher) fireError(err error) {
	d.mu.RLock()
	fn := d.onError
	d.mu.RUnlock()
	if fn != nil && err != nil {
		fn(err)
	}
}
