package progress

// TickSource delivers periodic callbacks tied to the display refresh.
// Start replaces any callback already registered; Stop releases it.
type TickSource interface {
	Start(tick func())
	Stop()
}

// ManualTicker is a TickSource driven explicitly, one Fire per frame.
type ManualTicker struct {
	tick   func()
	starts int
	fired  int
}

func (m *ManualTicker) Start(tick func()) {
	m.tick = tick
	m.starts++
}

func (m *ManualTicker) Stop() {
	m.tick = nil
}

// Active reports whether a callback is registered.
func (m *ManualTicker) Active() bool {
	return m.tick != nil
}

// Starts counts how many times the subscription was armed.
func (m *ManualTicker) Starts() int {
	return m.starts
}

// Fired counts delivered ticks.
func (m *ManualTicker) Fired() int {
	return m.fired
}

// Fire delivers a single tick. It returns false when nothing is subscribed.
func (m *ManualTicker) Fire() bool {
	tick := m.tick
	if tick == nil {
		return false
	}
	m.fired++
	tick()
	return true
}

// Run fires until the subscription is released or max ticks were delivered,
// and returns the number of ticks delivered.
func (m *ManualTicker) Run(max int) int {
	n := 0
	for n < max && m.Fire() {
		n++
	}
	return n
}
