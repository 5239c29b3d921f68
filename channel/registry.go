package channel

// Callback receives the raw payload of an event.
type Callback func(payload string)

// registry maps event names to callbacks. Event names keep the order of their
// first registration; callbacks keep registration order within a name.
type registry struct {
	order []string
	subs  map[string][]Callback
}

func newRegistry() *registry {
	return &registry{subs: make(map[string][]Callback)}
}

func (r *registry) add(event string, cb Callback) {
	if _, ok := r.subs[event]; !ok {
		r.order = append(r.order, event)
	}
	r.subs[event] = append(r.subs[event], cb)
}

// each calls fn for every (event, callback) pair in replay order.
func (r *registry) each(fn func(event string, cb Callback)) {
	for _, event := range r.order {
		for _, cb := range r.subs[event] {
			fn(event, cb)
		}
	}
}

func (r *registry) count(event string) int {
	return len(r.subs[event])
}

func (r *registry) len() int {
	n := 0
	for _, cbs := range r.subs {
		n += len(cbs)
	}
	return n
}

func (r *registry) events() []string {
	return append([]string(nil), r.order...)
}

func (r *registry) clear() {
	r.order = nil
	r.subs = make(map[string][]Callback)
}
