package todo

// Kind tags an Event.
type Kind int

const (
	// Add: a task joined the list.
	Add Kind = iota + 1
	// Change: a task was saved. Attr is set for change:<attr>, empty for the generic change.
	Change
	// Destroy: a task left the list. Task is the destroyed task.
	Destroy
	// Reset: the whole working set was replaced.
	Reset
	// FilterSet: the FilterState value was set.
	FilterSet
	// Visible: a task's visibility must be recomputed.
	Visible
	// WriteFailed: a store write failed and the optimistic mutation was rolled back.
	WriteFailed
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Change:
		return "change"
	case Destroy:
		return "destroy"
	case Reset:
		return "reset"
	case FilterSet:
		return "filter"
	case Visible:
		return "visible"
	case WriteFailed:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners. Which fields are set depends on Kind.
type Event struct {
	Kind   Kind
	Attr   string
	Task   *Task
	Filter Filter
	Err    error
}

// Channel returns the channel name in the classic "change:title" form.
func (e Event) Channel() string {
	if e.Kind == Change && e.Attr != "" {
		return "change:" + e.Attr
	}
	return e.Kind.String()
}

// Listener receives events synchronously.
type Listener func(Event)

type listener struct {
	fn     Listener
	active bool
}

// Bus is a per-channel listener table. Delivery is synchronous and in
// registration order: the channel's listeners first, then the "all" listeners.
// A Bus is not safe for concurrent use; all mutation happens on one goroutine.
type Bus struct {
	byKind map[Kind][]*listener
	byAttr map[string][]*listener
	all    []*listener
}

func NewBus() *Bus {
	return &Bus{
		byKind: map[Kind][]*listener{},
		byAttr: map[string][]*listener{},
	}
}

// Subscription detaches a listener.
type Subscription struct {
	l *listener
}

// Off detaches the listener. Safe to call more than once, and safe to call
// from inside a dispatch: a detached listener is skipped for the rest of it.
func (s Subscription) Off() {
	if s.l != nil {
		s.l.active = false
	}
}

// On listens on one channel. For Change it only receives the generic change.
func (b *Bus) On(k Kind, fn Listener) Subscription {
	l := &listener{fn: fn, active: true}
	b.byKind[k] = append(b.byKind[k], l)
	return Subscription{l: l}
}

// OnChange listens on change:<attr>.
func (b *Bus) OnChange(attr string, fn Listener) Subscription {
	l := &listener{fn: fn, active: true}
	b.byAttr[attr] = append(b.byAttr[attr], l)
	return Subscription{l: l}
}

// OnAll listens on every channel.
func (b *Bus) OnAll(fn Listener) Subscription {
	l := &listener{fn: fn, active: true}
	b.all = append(b.all, l)
	return Subscription{l: l}
}

// Emit delivers e to the channel's listeners, then to the "all" listeners.
// Listeners added during delivery do not see the event being delivered.
func (b *Bus) Emit(e Event) {
	var primary []*listener
	if e.Kind == Change && e.Attr != "" {
		primary = b.byAttr[e.Attr]
	} else {
		primary = b.byKind[e.Kind]
	}
	all := b.all
	deliver(primary, e)
	deliver(all, e)
	b.compact()
}

// Reset detaches every listener.
func (b *Bus) Reset() {
	for _, ls := range b.byKind {
		offAll(ls)
	}
	for _, ls := range b.byAttr {
		offAll(ls)
	}
	offAll(b.all)
	b.byKind = map[Kind][]*listener{}
	b.byAttr = map[string][]*listener{}
	b.all = nil
}

// Len reports the number of attached listeners.
func (b *Bus) Len() int {
	n := countActive(b.all)
	for _, ls := range b.byKind {
		n += countActive(ls)
	}
	for _, ls := range b.byAttr {
		n += countActive(ls)
	}
	return n
}

func deliver(ls []*listener, e Event) {
	// Snapshot: appends during delivery must not extend this loop.
	snap := ls[:len(ls):len(ls)]
	for _, l := range snap {
		if l.active {
			l.fn(e)
		}
	}
}

func (b *Bus) compact() {
	for k, ls := range b.byKind {
		b.byKind[k] = pruneInactive(ls)
	}
	for a, ls := range b.byAttr {
		b.byAttr[a] = pruneInactive(ls)
	}
	b.all = pruneInactive(b.all)
}

func pruneInactive(ls []*listener) []*listener {
	n := 0
	for _, l := range ls {
		if l.active {
			n++
		}
	}
	if n == len(ls) {
		return ls
	}
	out := make([]*listener, 0, n)
	for _, l := range ls {
		if l.active {
			out = append(out, l)
		}
	}
	return out
}

func offAll(ls []*listener) {
	for _, l := range ls {
		l.active = false
	}
}

func countActive(ls []*listener) int {
	n := 0
	for _, l := range ls {
		if l.active {
			n++
		}
	}
	return n
}
