package todo

import (
	"context"

	"tally-cli/internal/model"
)

// Task is one entity in a List. Tasks are only created by their List.
type Task struct {
	rec       model.Task
	saved     model.Task // last record written to (or loaded from) the store
	list      *List
	bus       *Bus
	handle    *Handle
	destroyed bool
}

// Handle is a non-owning, revocable reference to a Task. It goes dead when
// the task is destroyed or its list is reset.
type Handle struct {
	t *Task
}

// Task returns the referenced task while the handle is live.
func (h *Handle) Task() (*Task, bool) {
	if h == nil || h.t == nil {
		return nil, false
	}
	return h.t, true
}

func (h *Handle) Live() bool {
	_, ok := h.Task()
	return ok
}

func newTask(l *List, rec model.Task) *Task {
	t := &Task{rec: rec, saved: rec, list: l, bus: NewBus()}
	t.handle = &Handle{t: t}
	return t
}

func (t *Task) ID() string         { return t.rec.ID }
func (t *Task) Title() string      { return t.rec.Title }
func (t *Task) Completed() bool    { return t.rec.Completed }
func (t *Task) Order() int         { return t.rec.Order }
func (t *Task) Record() model.Task { return t.rec }
func (t *Task) Bus() *Bus          { return t.bus }
func (t *Task) Handle() *Handle    { return t.handle }
func (t *Task) Destroyed() bool    { return t.destroyed }

// Save merges attrs, emits change:<attr> for each attribute that changed and
// then the generic change, and writes the full record through the store.
// If the write fails, the attributes this call changed go back to their
// stored values (with their own change events) and a *PersistError is
// returned. Changes made by nested saves are left alone.
func (t *Task) Save(ctx context.Context, attrs model.Attrs) error {
	if t.destroyed || t.list == nil {
		return ErrDestroyed
	}
	l := t.list
	changed := t.merge(attrs)
	set := t.rec
	t.emitChanges(changed)
	if t.destroyed {
		// A listener destroyed the task; the delete already went to the store.
		return nil
	}

	rec := t.rec
	if err := l.store.Save(ctx, rec.ID, rec); err != nil {
		perr := &PersistError{Op: OpSave, ID: t.rec.ID, Err: err}
		l.log.WithError(err).WithField("id", t.rec.ID).Warn("save failed; rolling back")
		if t.destroyed {
			l.fail(perr, nil)
			return perr
		}
		t.emitChanges(t.merge(undoAttrs(changed, t.saved, set, t.rec)))
		l.fail(perr, t)
		return perr
	}
	t.saved = rec
	return nil
}

// Toggle flips completed.
func (t *Task) Toggle(ctx context.Context) error {
	if t.destroyed {
		return ErrDestroyed
	}
	return t.Save(ctx, model.CompletedAttr(!t.rec.Completed))
}

// Destroy emits destroy, removes the task from its list, revokes its handle
// and deletes the record. It is terminal: the task never emits again. If the
// delete fails, the record is re-added to the list as a new Task.
func (t *Task) Destroy(ctx context.Context) error {
	if t.destroyed || t.list == nil {
		return ErrDestroyed
	}
	l := t.list
	rec := t.rec
	t.destroyed = true

	e := Event{Kind: Destroy, Task: t}
	t.bus.Emit(e)
	l.remove(t)
	l.bus.Emit(e)
	t.detach()

	if err := l.store.Delete(ctx, rec.ID); err != nil {
		perr := &PersistError{Op: OpDelete, ID: rec.ID, Err: err}
		l.log.WithError(err).WithField("id", rec.ID).Warn("delete failed; restoring task")
		restored := l.insert(rec)
		restored.emit(Event{Kind: Add, Task: restored})
		l.fail(perr, nil)
		return perr
	}
	return nil
}

// Trigger emits a custom entity-scoped event such as Visible.
func (t *Task) Trigger(k Kind) {
	if t.destroyed {
		return
	}
	t.emit(Event{Kind: k, Task: t})
}

// undoAttrs resets the attributes one Save changed to their stored values,
// skipping any that a nested save has since moved on from the value set.
func undoAttrs(changed []string, stored, set, cur model.Task) model.Attrs {
	var out model.Attrs
	for _, a := range changed {
		switch a {
		case model.AttrTitle:
			if cur.Title == set.Title {
				out.Title = &stored.Title
			}
		case model.AttrCompleted:
			if cur.Completed == set.Completed {
				out.Completed = &stored.Completed
			}
		}
	}
	return out
}

func (t *Task) merge(attrs model.Attrs) []string {
	var changed []string
	if attrs.Title != nil && *attrs.Title != t.rec.Title {
		t.rec.Title = *attrs.Title
		changed = append(changed, model.AttrTitle)
	}
	if attrs.Completed != nil && *attrs.Completed != t.rec.Completed {
		t.rec.Completed = *attrs.Completed
		changed = append(changed, model.AttrCompleted)
	}
	return changed
}

func (t *Task) emitChanges(attrs []string) {
	for _, a := range attrs {
		if t.destroyed {
			return
		}
		t.emit(Event{Kind: Change, Attr: a, Task: t})
	}
	if t.destroyed {
		return
	}
	t.emit(Event{Kind: Change, Task: t})
}

// emit delivers on the task's bus, then on the owning list's bus.
func (t *Task) emit(e Event) {
	t.bus.Emit(e)
	if t.destroyed || t.list == nil {
		return
	}
	t.list.bus.Emit(e)
}

func (t *Task) detach() {
	t.bus.Reset()
	t.handle.t = nil
	t.list = nil
}
