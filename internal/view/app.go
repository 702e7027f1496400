package view

import (
	"context"
	"errors"
	"strings"

	"tally-cli/internal/logging"
	"tally-cli/internal/model"
	"tally-cli/internal/todo"

	log "github.com/sirupsen/logrus"
)

// AppController is the whole-list controller: it owns the new-task input,
// bulk actions, the footer stats and one ItemController per task.
type AppController struct {
	list      *todo.List
	filter    *todo.FilterState
	r         Renderer
	commitKey string
	log       *log.Entry

	input   string
	items   map[string]*ItemController
	subs    []todo.Subscription
	lastErr error
	closed  bool
}

type AppOption func(*AppController)

// WithCommitKey sets the key that creates a task and finishes an edit.
func WithCommitKey(k string) AppOption {
	return func(c *AppController) {
		if strings.TrimSpace(k) != "" {
			c.commitKey = k
		}
	}
}

func WithLogger(e *log.Entry) AppOption {
	return func(c *AppController) { c.log = e }
}

// NewApp binds a controller to list and fs. Tasks already in the list get
// item controllers immediately; later ones arrive through add and reset.
func NewApp(list *todo.List, fs *todo.FilterState, r Renderer, opts ...AppOption) *AppController {
	if r == nil {
		r = NopRenderer{}
	}
	c := &AppController{
		list:      list,
		filter:    fs,
		r:         r,
		commitKey: "enter",
		items:     map[string]*ItemController{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = log.NewEntry(logging.Discard())
	}

	b := list.Bus()
	c.subs = append(c.subs,
		b.On(todo.Add, func(e todo.Event) { c.addOne(e.Task) }),
		b.On(todo.Reset, func(todo.Event) { c.addAll() }),
		b.OnChange(model.AttrCompleted, func(e todo.Event) { c.filterOne(e.Task) }),
		b.On(todo.FilterSet, func(todo.Event) { c.filterAll() }),
		b.On(todo.Destroy, func(e todo.Event) { c.dropOne(e.Task) }),
		b.On(todo.WriteFailed, func(e todo.Event) { c.lastErr = e.Err }),
		b.OnAll(func(todo.Event) { c.Render() }),
	)
	for _, t := range list.All() {
		c.addOne(t)
	}
	c.Render()
	return c
}

func (c *AppController) State() AppState {
	st := c.list.Stats()
	ids := make([]string, 0, c.list.Len())
	for _, t := range c.list.All() {
		ids = append(ids, t.ID())
	}
	return AppState{
		Empty:      st.Total == 0,
		Stats:      st,
		Filter:     c.filter.Value(),
		AllChecked: st.Remaining == 0,
		Items:      ids,
		Input:      c.input,
		Err:        c.lastErr,
	}
}

func (c *AppController) Render() {
	if c.closed {
		return
	}
	c.r.RenderApp(c.State())
}

func (c *AppController) SetInput(s string) { c.input = s }

func (c *AppController) Input() string { return c.input }

// Err is the last write failure reported on the list bus.
func (c *AppController) Err() error { return c.lastErr }

func (c *AppController) DismissErr() {
	if c.lastErr == nil {
		return
	}
	c.lastErr = nil
	c.Render()
}

// CreateOnEnter creates a task from the input when key is the commit key
// and the trimmed input is not empty, then clears the input. Anything else
// is a no-op. On a write failure the input is kept.
func (c *AppController) CreateOnEnter(ctx context.Context, key string) (*todo.Task, error) {
	if key != c.commitKey {
		return nil, nil
	}
	title := strings.TrimSpace(c.input)
	if title == "" {
		return nil, nil
	}
	t, err := c.list.Create(ctx, model.Task{
		Title:     title,
		Order:     c.list.NextOrder(),
		Completed: false,
	})
	if errors.Is(err, todo.ErrEmptyTitle) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.input = ""
	c.Render()
	return t, nil
}

func (c *AppController) ClearCompleted(ctx context.Context) error {
	return c.list.RemoveAllCompleted(ctx)
}

// ToggleAllComplete sets completed on every task to checked.
func (c *AppController) ToggleAllComplete(ctx context.Context, checked bool) error {
	return c.list.ToggleAllTo(ctx, checked)
}

// Items returns the item controllers in list order.
func (c *AppController) Items() []*ItemController {
	out := make([]*ItemController, 0, len(c.items))
	for _, t := range c.list.All() {
		if ic, ok := c.items[t.ID()]; ok {
			out = append(out, ic)
		}
	}
	return out
}

// Visible returns the item controllers that pass the current filter.
func (c *AppController) Visible() []*ItemController {
	var out []*ItemController
	for _, ic := range c.Items() {
		if !ic.IsHidden() {
			out = append(out, ic)
		}
	}
	return out
}

func (c *AppController) Item(id string) (*ItemController, bool) {
	ic, ok := c.items[id]
	return ic, ok
}

// Close detaches the controller and every item controller.
func (c *AppController) Close() {
	for _, s := range c.subs {
		s.Off()
	}
	c.subs = nil
	for id, ic := range c.items {
		ic.Detach()
		delete(c.items, id)
	}
	c.closed = true
}

func (c *AppController) addOne(t *todo.Task) {
	if t == nil || t.Destroyed() {
		return
	}
	if old, ok := c.items[t.ID()]; ok {
		old.Detach()
	}
	ic := newItem(t, c.filter, c.r, c.commitKey)
	c.items[t.ID()] = ic
	ic.Render()
}

func (c *AppController) addAll() {
	for id, ic := range c.items {
		ic.Detach()
		c.r.RemoveItem(id)
		delete(c.items, id)
	}
	for _, t := range c.list.All() {
		c.addOne(t)
	}
	c.log.WithField("count", len(c.items)).Debug("view reset")
}

func (c *AppController) dropOne(t *todo.Task) {
	if t == nil {
		return
	}
	if ic, ok := c.items[t.ID()]; ok && !ic.Live() {
		delete(c.items, t.ID())
	}
}

func (c *AppController) filterOne(t *todo.Task) {
	if t != nil {
		t.Trigger(todo.Visible)
	}
}

func (c *AppController) filterAll() {
	for _, t := range c.list.All() {
		c.filterOne(t)
	}
}
