package view

import (
	"context"
	"strings"

	"tally-cli/internal/model"
	"tally-cli/internal/todo"
)

// ItemController drives one task: viewing <-> editing, toggle and clear.
// It holds only a revocable handle to its task and detaches itself when
// the task is destroyed.
type ItemController struct {
	id        string
	handle    *todo.Handle
	filter    *todo.FilterState
	r         Renderer
	commitKey string

	mode  Mode
	draft string

	subs     []todo.Subscription
	detached bool
}

func newItem(t *todo.Task, fs *todo.FilterState, r Renderer, commitKey string) *ItemController {
	c := &ItemController{
		id:        t.ID(),
		handle:    t.Handle(),
		filter:    fs,
		r:         r,
		commitKey: commitKey,
	}
	b := t.Bus()
	c.subs = append(c.subs,
		b.On(todo.Change, func(todo.Event) { c.Render() }),
		b.On(todo.Destroy, func(todo.Event) { c.remove() }),
		b.On(todo.Visible, func(todo.Event) { c.toggleVisible() }),
	)
	return c
}

func (c *ItemController) ID() string { return c.id }

func (c *ItemController) Mode() Mode { return c.mode }

// Live reports whether the controller still has a task to drive.
func (c *ItemController) Live() bool { return !c.detached && c.handle.Live() }

// Render pushes the current state to the renderer.
func (c *ItemController) Render() {
	if c.detached {
		return
	}
	if st, ok := c.State(); ok {
		c.r.RenderItem(st)
	}
}

func (c *ItemController) State() (ItemState, bool) {
	t, ok := c.handle.Task()
	if !ok || c.detached {
		return ItemState{}, false
	}
	return ItemState{
		ID:        t.ID(),
		Title:     t.Title(),
		Completed: t.Completed(),
		Order:     t.Order(),
		Hidden:    !c.filter.Visible(t),
		Mode:      c.mode,
		Draft:     c.draft,
	}, true
}

// IsHidden applies the visibility rule to the task's current state.
func (c *ItemController) IsHidden() bool {
	t, ok := c.handle.Task()
	if !ok {
		return true
	}
	return !c.filter.Visible(t)
}

func (c *ItemController) toggleVisible() { c.Render() }

// Edit enters editing with the draft seeded from the current title.
func (c *ItemController) Edit() error {
	t, err := c.task()
	if err != nil {
		return err
	}
	c.mode = Editing
	c.draft = t.Title()
	c.Render()
	return nil
}

func (c *ItemController) SetDraft(s string) {
	if c.mode == Editing {
		c.draft = s
	}
}

func (c *ItemController) Draft() string { return c.draft }

// Close leaves editing. A non-empty trimmed draft is saved as the title;
// an empty one destroys the task. If the save fails the controller stays in
// editing with the draft intact.
func (c *ItemController) Close(ctx context.Context) error {
	t, err := c.task()
	if err != nil {
		return err
	}
	if c.mode != Editing {
		return nil
	}
	title := strings.TrimSpace(c.draft)
	if title == "" {
		c.mode = Viewing
		c.draft = ""
		return t.Destroy(ctx)
	}
	draft := c.draft
	c.mode = Viewing
	c.draft = ""
	if err := t.Save(ctx, model.TitleAttr(title)); err != nil {
		c.mode = Editing
		c.draft = draft
		c.Render()
		return err
	}
	return nil
}

// Cancel leaves editing without saving.
func (c *ItemController) Cancel() {
	if c.mode != Editing {
		return
	}
	c.mode = Viewing
	c.draft = ""
	c.Render()
}

// HandleKey runs Close on the commit key while editing. It reports whether
// the key was consumed.
func (c *ItemController) HandleKey(ctx context.Context, key string) (bool, error) {
	if c.mode != Editing || key != c.commitKey {
		return false, nil
	}
	return true, c.Close(ctx)
}

func (c *ItemController) ToggleCompleted(ctx context.Context) error {
	t, err := c.task()
	if err != nil {
		return err
	}
	return t.Toggle(ctx)
}

// Clear destroys the task.
func (c *ItemController) Clear(ctx context.Context) error {
	t, err := c.task()
	if err != nil {
		return err
	}
	return t.Destroy(ctx)
}

// Detach drops every listener. The controller is inert afterwards.
func (c *ItemController) Detach() {
	for _, s := range c.subs {
		s.Off()
	}
	c.subs = nil
	c.detached = true
}

func (c *ItemController) remove() {
	c.Detach()
	c.r.RemoveItem(c.id)
}

func (c *ItemController) task() (*todo.Task, error) {
	if c.detached {
		return nil, todo.ErrDestroyed
	}
	t, ok := c.handle.Task()
	if !ok {
		return nil, todo.ErrDestroyed
	}
	return t, nil
}
