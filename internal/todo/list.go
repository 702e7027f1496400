package todo

import (
	"context"
	"errors"
	"sort"
	"strings"

	"tally-cli/internal/logging"
	"tally-cli/internal/model"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store is the persistence adapter a List writes through to. Implementations
// are scoped to one namespace, so one Store backs exactly one List.
type Store interface {
	LoadAll(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, id string, rec model.Task) error
	Delete(ctx context.Context, id string) error
}

// Stats are the aggregate counts shown in the footer.
type Stats struct {
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}

// List is the ordered collection. Tasks are unique by id and always iterate
// in ascending order. A List is not safe for concurrent use.
type List struct {
	store Store
	bus   *Bus
	log   *log.Entry
	newID func() string

	tasks []*Task
	byID  map[string]*Task
}

type Option func(*List)

// WithIDFunc overrides the id generator used by Create.
func WithIDFunc(fn func() string) Option {
	return func(l *List) { l.newID = fn }
}

func WithLogger(e *log.Entry) Option {
	return func(l *List) { l.log = e }
}

func NewList(s Store, opts ...Option) *List {
	l := &List{
		store: s,
		bus:   NewBus(),
		newID: uuid.NewString,
		byID:  map[string]*Task{},
	}
	for _, o := range opts {
		o(l)
	}
	if l.log == nil {
		l.log = log.NewEntry(logging.Discard())
	}
	return l
}

func (l *List) Bus() *Bus { return l.bus }

func (l *List) Len() int { return len(l.tasks) }

// All returns the members in order. The slice is a copy.
func (l *List) All() []*Task {
	out := make([]*Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

func (l *List) Get(id string) (*Task, bool) {
	t, ok := l.byID[id]
	return t, ok
}

// NextOrder is 1 for an empty list, else the largest order plus one.
func (l *List) NextOrder() int {
	if len(l.tasks) == 0 {
		return 1
	}
	return l.tasks[len(l.tasks)-1].rec.Order + 1
}

func (l *List) Completed() []*Task {
	return l.where(func(t *Task) bool { return t.rec.Completed })
}

func (l *List) Remaining() []*Task {
	return l.where(func(t *Task) bool { return !t.rec.Completed })
}

func (l *List) Stats() Stats {
	c := len(l.Completed())
	return Stats{Completed: c, Remaining: len(l.tasks) - c, Total: len(l.tasks)}
}

// Create validates rec, inserts a new Task, emits add and writes it through.
// An empty (after trimming) title is refused with ErrEmptyTitle. Order 0
// means "next order". If the write fails the task is removed again (emitting
// destroy) and a *PersistError is returned.
func (l *List) Create(ctx context.Context, rec model.Task) (*Task, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	if rec.Title == "" {
		return nil, ErrEmptyTitle
	}
	if rec.Order <= 0 {
		rec.Order = l.NextOrder()
	} else if l.orderTaken(rec.Order) {
		return nil, ErrOrderTaken
	}
	if rec.ID == "" {
		rec.ID = l.newID()
	}
	if _, ok := l.byID[rec.ID]; ok {
		return nil, ErrDuplicateID
	}

	t := l.insert(rec)
	t.emit(Event{Kind: Add, Task: t})
	if t.destroyed {
		return nil, ErrDestroyed
	}

	if err := l.store.Save(ctx, rec.ID, t.rec); err != nil {
		perr := &PersistError{Op: OpSave, ID: rec.ID, Err: err}
		l.log.WithError(err).WithField("id", rec.ID).Warn("create failed; removing task")
		if !t.destroyed {
			t.destroyed = true
			e := Event{Kind: Destroy, Task: t}
			t.bus.Emit(e)
			l.remove(t)
			l.bus.Emit(e)
			t.detach()
		}
		l.fail(perr, nil)
		return nil, perr
	}
	return t, nil
}

// Fetch replaces the working set with the store's contents and emits a
// single reset. Previously held tasks are detached: their listeners are
// dropped and their handles revoked. On error the working set is unchanged.
func (l *List) Fetch(ctx context.Context) error {
	recs, err := l.store.LoadAll(ctx)
	if err != nil {
		return &PersistError{Op: OpLoad, Err: err}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Order != recs[j].Order {
			return recs[i].Order < recs[j].Order
		}
		return recs[i].ID < recs[j].ID
	})

	for _, t := range l.tasks {
		t.detach()
	}
	l.tasks = make([]*Task, 0, len(recs))
	l.byID = make(map[string]*Task, len(recs))
	for _, rec := range recs {
		if _, dup := l.byID[rec.ID]; dup {
			l.log.WithField("id", rec.ID).Warn("duplicate id in store; keeping first")
			continue
		}
		t := newTask(l, rec)
		l.tasks = append(l.tasks, t)
		l.byID[rec.ID] = t
	}
	l.log.WithField("count", len(l.tasks)).Debug("fetched")
	l.bus.Emit(Event{Kind: Reset})
	return nil
}

// RemoveAllCompleted destroys every completed task, each with its own
// destroy event. Failures are joined.
func (l *List) RemoveAllCompleted(ctx context.Context) error {
	var errs []error
	for _, t := range l.Completed() {
		if t.destroyed {
			continue
		}
		if err := t.Destroy(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ToggleAllTo saves completed on every member.
func (l *List) ToggleAllTo(ctx context.Context, completed bool) error {
	var errs []error
	for _, t := range l.All() {
		if t.destroyed {
			continue
		}
		if err := t.Save(ctx, model.CompletedAttr(completed)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *List) where(keep func(*Task) bool) []*Task {
	var out []*Task
	for _, t := range l.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (l *List) orderTaken(order int) bool {
	i := l.search(order)
	return i < len(l.tasks) && l.tasks[i].rec.Order == order
}

func (l *List) search(order int) int {
	return sort.Search(len(l.tasks), func(i int) bool { return l.tasks[i].rec.Order >= order })
}

func (l *List) insert(rec model.Task) *Task {
	t := newTask(l, rec)
	i := l.search(rec.Order)
	l.tasks = append(l.tasks, nil)
	copy(l.tasks[i+1:], l.tasks[i:])
	l.tasks[i] = t
	l.byID[rec.ID] = t
	return t
}

func (l *List) remove(t *Task) {
	if l.byID[t.rec.ID] != t {
		return
	}
	delete(l.byID, t.rec.ID)
	for i, x := range l.tasks {
		if x == t {
			l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
			return
		}
	}
}

func (l *List) fail(err *PersistError, t *Task) {
	l.bus.Emit(Event{Kind: WriteFailed, Err: err, Task: t})
}
