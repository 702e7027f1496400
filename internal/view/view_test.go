package view

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"tally-cli/internal/model"
	"tally-cli/internal/todo"
)

type memStore struct {
	recs    map[string]model.Task
	saveErr error
	delErr  error
}

func newMemStore() *memStore { return &memStore{recs: map[string]model.Task{}} }

func (s *memStore) LoadAll(context.Context) ([]model.Task, error) {
	out := make([]model.Task, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *memStore) Save(_ context.Context, id string, rec model.Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.recs[id] = rec
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.recs, id)
	return nil
}

// recorder keeps the last state per item and the last app state.
type recorder struct {
	app      AppState
	appCalls int
	items    map[string]ItemState
	removed  []string
}

func newRecorder() *recorder { return &recorder{items: map[string]ItemState{}} }

func (r *recorder) RenderApp(s AppState) { r.app = s; r.appCalls++ }
func (r *recorder) RenderItem(s ItemState) {
	r.items[s.ID] = s
}
func (r *recorder) RemoveItem(id string) {
	delete(r.items, id)
	r.removed = append(r.removed, id)
}

type fixture struct {
	store *memStore
	list  *todo.List
	fs    *todo.FilterState
	rec   *recorder
	app   *AppController
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	s := newMemStore()
	l := todo.NewList(s, todo.WithIDFunc(func() string { n++; return fmt.Sprintf("t%d", n) }))
	fs := todo.NewFilterState(l)
	rec := newRecorder()
	return &fixture{store: s, list: l, fs: fs, rec: rec, app: NewApp(l, fs, rec)}
}

func (f *fixture) add(t *testing.T, title string) *todo.Task {
	t.Helper()
	f.app.SetInput(title)
	task, err := f.app.CreateOnEnter(context.Background(), "enter")
	if err != nil {
		t.Fatalf("CreateOnEnter(%q): %v", title, err)
	}
	if task == nil {
		t.Fatalf("CreateOnEnter(%q): no task", title)
	}
	return task
}

func TestApp_EmptyStateMachine(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	if !f.rec.app.Empty || f.rec.appCalls == 0 {
		t.Fatalf("initial render: %+v calls=%d", f.rec.app, f.rec.appCalls)
	}

	milk := f.add(t, "buy milk")
	if f.rec.app.Empty || f.rec.app.Stats.Remaining != 1 || f.rec.app.AllChecked {
		t.Fatalf("after create: %+v", f.rec.app)
	}
	if err := milk.Toggle(ctx); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !f.rec.app.AllChecked || f.rec.app.Stats.Completed != 1 {
		t.Fatalf("after toggle: %+v", f.rec.app)
	}
	if err := f.app.ClearCompleted(ctx); err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if !f.rec.app.Empty || len(f.rec.app.Items) != 0 {
		t.Fatalf("after clear: %+v", f.rec.app)
	}
}

func TestApp_CreateOnEnter_NoOps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tests := []struct {
		name  string
		input string
		key   string
	}{
		{"empty", "", "enter"},
		{"whitespace", "   \t", "enter"},
		{"other key", "buy milk", "a"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.app.SetInput(tt.input)
			task, err := f.app.CreateOnEnter(ctx, tt.key)
			if err != nil || task != nil {
				t.Fatalf("got task=%v err=%v", task, err)
			}
			if f.list.Len() != 0 {
				t.Fatalf("list grew to %d", f.list.Len())
			}
			if f.app.Input() != tt.input {
				t.Fatalf("input changed: %q", f.app.Input())
			}
		})
	}
}

func TestApp_CreateOnEnter_TrimsAndClearsInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.app.SetInput("  buy milk  ")
	task, err := f.app.CreateOnEnter(context.Background(), "enter")
	if err != nil {
		t.Fatalf("CreateOnEnter: %v", err)
	}
	if task.Title() != "buy milk" || task.Order() != 1 || task.Completed() {
		t.Fatalf("task: %+v", task.Record())
	}
	if f.app.Input() != "" || f.rec.app.Input != "" {
		t.Fatalf("input not cleared: %q", f.app.Input())
	}
	if _, ok := f.rec.items[task.ID()]; !ok {
		t.Fatalf("new item not rendered")
	}
}

func TestApp_CommitKeyOption(t *testing.T) {
	t.Parallel()
	l := todo.NewList(newMemStore())
	app := NewApp(l, todo.NewFilterState(l), nil, WithCommitKey("ctrl+s"))
	app.SetInput("x")
	if task, _ := app.CreateOnEnter(context.Background(), "enter"); task != nil {
		t.Fatalf("enter should not commit")
	}
	if task, err := app.CreateOnEnter(context.Background(), "ctrl+s"); err != nil || task == nil {
		t.Fatalf("ctrl+s: task=%v err=%v", task, err)
	}
}

func TestScenario_BuyMilkWalkDog(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	milk := f.add(t, "buy milk")
	dog := f.add(t, "walk dog")

	if f.list.Len() != 2 || milk.Order() != 1 || dog.Order() != 2 || len(f.list.Remaining()) != 2 {
		t.Fatalf("after create: len=%d orders=%d,%d", f.list.Len(), milk.Order(), dog.Order())
	}

	mc, _ := f.app.Item(milk.ID())
	if err := mc.ToggleCompleted(ctx); err != nil {
		t.Fatalf("ToggleCompleted: %v", err)
	}
	if len(f.list.Completed()) != 1 || len(f.list.Remaining()) != 1 {
		t.Fatalf("partition: completed=%d remaining=%d", len(f.list.Completed()), len(f.list.Remaining()))
	}

	f.fs.Set(FilterFromRoute("#/active"))
	if !f.rec.items[milk.ID()].Hidden || f.rec.items[dog.ID()].Hidden {
		t.Fatalf("visibility under active: milk=%+v dog=%+v", f.rec.items[milk.ID()], f.rec.items[dog.ID()])
	}
	if f.rec.app.Filter != todo.FilterActive {
		t.Fatalf("selected filter: %q", f.rec.app.Filter)
	}
	if vis := f.app.Visible(); len(vis) != 1 || vis[0].ID() != dog.ID() {
		t.Fatalf("Visible: %v", vis)
	}

	if err := f.app.ClearCompleted(ctx); err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	all := f.list.All()
	if len(all) != 1 || all[0].Title() != "walk dog" {
		t.Fatalf("after clear: %v", all)
	}
	if _, ok := f.store.recs[milk.ID()]; ok {
		t.Fatalf("milk still persisted")
	}
}

func TestApp_FilterOneOnCompletedChange(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.add(t, "a")
	f.fs.Set(todo.FilterCompleted)
	if !f.rec.items[task.ID()].Hidden {
		t.Fatalf("open task visible under completed")
	}
	if err := task.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if f.rec.items[task.ID()].Hidden {
		t.Fatalf("completed task still hidden")
	}
}

func TestApp_ToggleAllComplete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "a")
	f.add(t, "b")
	if err := f.app.ToggleAllComplete(ctx, true); err != nil {
		t.Fatalf("ToggleAllComplete: %v", err)
	}
	if !f.rec.app.AllChecked || f.rec.app.Stats.Completed != 2 {
		t.Fatalf("after check all: %+v", f.rec.app)
	}
	if err := f.app.ToggleAllComplete(ctx, false); err != nil {
		t.Fatalf("ToggleAllComplete: %v", err)
	}
	if f.rec.app.AllChecked || f.rec.app.Stats.Remaining != 2 {
		t.Fatalf("after uncheck all: %+v", f.rec.app)
	}
}

func TestItem_EditCloseSavesTrimmedTitle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	task := f.add(t, "buy milk")
	ic, _ := f.app.Item(task.ID())

	if err := ic.Edit(); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if st := f.rec.items[task.ID()]; st.Mode != Editing || st.Draft != "buy milk" {
		t.Fatalf("editing state: %+v", st)
	}
	ic.SetDraft("  buy oat milk ")
	if handled, err := ic.HandleKey(ctx, "x"); handled || err != nil {
		t.Fatalf("non-commit key handled=%v err=%v", handled, err)
	}
	handled, err := ic.HandleKey(ctx, "enter")
	if !handled || err != nil {
		t.Fatalf("commit key handled=%v err=%v", handled, err)
	}
	if task.Title() != "buy oat milk" || ic.Mode() != Viewing {
		t.Fatalf("after close: title=%q mode=%v", task.Title(), ic.Mode())
	}
	if st := f.rec.items[task.ID()]; st.Title != "buy oat milk" || st.Mode != Viewing {
		t.Fatalf("rendered: %+v", st)
	}
	if f.store.recs[task.ID()].Title != "buy oat milk" {
		t.Fatalf("not persisted: %+v", f.store.recs[task.ID()])
	}
}

func TestItem_CloseKeepsDraftWhenSaveFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	milk := f.add(t, "buy milk")
	ic, _ := f.app.Item(milk.ID())

	if err := ic.Edit(); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	ic.SetDraft("buy oat milk")
	f.store.saveErr = errors.New("disk full")

	err := ic.Close(ctx)
	if !todo.IsPersistError(err) {
		t.Fatalf("expected *PersistError; got %v", err)
	}
	if ic.Mode() != Editing || ic.Draft() != "buy oat milk" {
		t.Fatalf("edit lost: mode=%v draft=%q", ic.Mode(), ic.Draft())
	}
	if milk.Title() != "buy milk" {
		t.Fatalf("title not rolled back: %q", milk.Title())
	}
	if st := f.rec.items[milk.ID()]; st.Mode != Editing || st.Draft != "buy oat milk" {
		t.Fatalf("rendered state: %+v", st)
	}

	f.store.saveErr = nil
	if err := ic.Close(ctx); err != nil {
		t.Fatalf("retry Close: %v", err)
	}
	if ic.Mode() != Viewing || milk.Title() != "buy oat milk" {
		t.Fatalf("retry: mode=%v title=%q", ic.Mode(), milk.Title())
	}
}

func TestItem_CloseWithEmptyDraftDestroys(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	task := f.add(t, "buy milk")
	ic, _ := f.app.Item(task.ID())

	if err := ic.Edit(); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	ic.SetDraft("   ")
	if err := ic.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if f.list.Len() != 0 || !task.Destroyed() {
		t.Fatalf("task survived empty close")
	}
	if ic.Live() {
		t.Fatalf("controller still live")
	}
	if _, ok := f.app.Item(task.ID()); ok {
		t.Fatalf("app kept the controller")
	}
	if len(f.rec.removed) != 1 || f.rec.removed[0] != task.ID() {
		t.Fatalf("RemoveItem calls: %v", f.rec.removed)
	}
}

func TestItem_CancelKeepsTitle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.add(t, "buy milk")
	ic, _ := f.app.Item(task.ID())
	_ = ic.Edit()
	ic.SetDraft("")
	ic.Cancel()
	if ic.Mode() != Viewing || task.Title() != "buy milk" || task.Destroyed() {
		t.Fatalf("after cancel: mode=%v title=%q", ic.Mode(), task.Title())
	}
}

func TestItem_DestroyDetachesController(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	task := f.add(t, "a")
	ic, _ := f.app.Item(task.ID())
	bus := task.Bus()

	if err := ic.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if bus.Len() != 0 {
		t.Fatalf("listeners left on destroyed task: %d", bus.Len())
	}
	calls := f.rec.appCalls
	ic.Render()
	if _, ok := f.rec.items[task.ID()]; ok {
		t.Fatalf("detached controller rendered")
	}
	for name, op := range map[string]func() error{
		"Edit":            ic.Edit,
		"ToggleCompleted": func() error { return ic.ToggleCompleted(ctx) },
		"Clear":           func() error { return ic.Clear(ctx) },
	} {
		if err := op(); !errors.Is(err, todo.ErrDestroyed) {
			t.Fatalf("%s after destroy: got %v want ErrDestroyed", name, err)
		}
	}
	if f.rec.appCalls != calls {
		t.Fatalf("operations on a destroyed item reached the app")
	}
}

func TestApp_ResetRebuildsControllers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	old := f.add(t, "a")
	oldCtl, _ := f.app.Item(old.ID())

	if err := f.list.Fetch(ctx); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if oldCtl.Live() {
		t.Fatalf("old controller survived reset")
	}
	newCtl, ok := f.app.Item(old.ID())
	if !ok || newCtl == oldCtl || !newCtl.Live() {
		t.Fatalf("controller not rebuilt: ok=%v same=%v", ok, newCtl == oldCtl)
	}
	if len(f.app.Items()) != 1 || len(f.rec.app.Items) != 1 {
		t.Fatalf("items after reset: %d/%v", len(f.app.Items()), f.rec.app.Items)
	}
}

func TestApp_WriteFailureSurfaces(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.store.saveErr = errors.New("disk full")

	f.app.SetInput("buy milk")
	task, err := f.app.CreateOnEnter(ctx, "enter")
	if task != nil || !todo.IsPersistError(err) {
		t.Fatalf("CreateOnEnter: task=%v err=%v", task, err)
	}
	if f.app.Input() != "buy milk" {
		t.Fatalf("input dropped on failure: %q", f.app.Input())
	}
	if f.rec.app.Err == nil || !f.rec.app.Empty || len(f.app.Items()) != 0 {
		t.Fatalf("app state after failed create: %+v", f.rec.app)
	}

	f.app.DismissErr()
	if f.rec.app.Err != nil || f.app.Err() != nil {
		t.Fatalf("error not dismissed")
	}
}

func TestApp_FailedDestroyRestoresItem(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	task := f.add(t, "a")
	ic, _ := f.app.Item(task.ID())
	f.store.delErr = errors.New("locked")

	if err := ic.Clear(ctx); !todo.IsPersistError(err) {
		t.Fatalf("Clear: %v", err)
	}
	if ic.Live() {
		t.Fatalf("old controller should stay detached")
	}
	restored, ok := f.app.Item(task.ID())
	if !ok || !restored.Live() || restored == ic {
		t.Fatalf("restored controller missing")
	}
	if _, ok := f.rec.items[task.ID()]; !ok {
		t.Fatalf("restored item not rendered")
	}
	if f.rec.app.Err == nil {
		t.Fatalf("error not surfaced")
	}
}

func TestApp_CloseStopsRendering(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.add(t, "a")
	f.app.Close()
	calls := f.rec.appCalls
	if err := task.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	f.fs.Set(todo.FilterActive)
	if f.rec.appCalls != calls {
		t.Fatalf("closed app rendered")
	}
	if f.rec.items[task.ID()].Completed {
		t.Fatalf("closed item controller rendered")
	}
	if task.Bus().Len() != 0 {
		t.Fatalf("item listeners left after Close: %d", task.Bus().Len())
	}
}

func TestFilterFromRoute(t *testing.T) {
	t.Parallel()
	tests := map[string]todo.Filter{
		"":             todo.FilterNone,
		"#/":           todo.FilterNone,
		"#/active":     todo.FilterActive,
		"#/completed/": todo.FilterCompleted,
		"completed":    todo.FilterCompleted,
		"#/bogus":      todo.FilterNone,
	}
	for in, want := range tests {
		if got := FilterFromRoute(in); got != want {
			t.Fatalf("FilterFromRoute(%q): got %q want %q", in, got, want)
		}
	}
	for _, f := range todo.Filters {
		if got := FilterFromRoute(Route(f)); got != f {
			t.Fatalf("Route round trip %q: got %q", f, got)
		}
	}
	if !IsRoute("#/active") || IsRoute("active") {
		t.Fatalf("IsRoute")
	}
}
