package tui

import "tally-cli/internal/view"

// screen is the view.Renderer the controllers draw into. The bubbletea
// model holds it by pointer so renders made during Update survive the
// model being copied.
type screen struct {
	app   view.AppState
	items map[string]view.ItemState
}

func newScreen() *screen {
	return &screen{items: map[string]view.ItemState{}}
}

func (s *screen) RenderApp(st view.AppState) {
	s.app = st
}

func (s *screen) RenderItem(st view.ItemState) {
	s.items[st.ID] = st
}

func (s *screen) RemoveItem(id string) {
	delete(s.items, id)
}

// visible returns the rendered, unhidden items in list order.
func (s *screen) visible() []view.ItemState {
	var out []view.ItemState
	for _, id := range s.app.Items {
		st, ok := s.items[id]
		if !ok || st.Hidden {
			continue
		}
		out = append(out, st)
	}
	return out
}
