package canvas

import "fmt"

// EntryType tags a history entry.
type EntryType string

const (
	EntryAddStroke        EntryType = "add_stroke"
	EntryClearAll         EntryType = "clear_all"
	EntryImportImage      EntryType = "import_image"
	EntryRemoveImage      EntryType = "remove_image"
	EntryTransformImage   EntryType = "transform_image"
	EntryToggleVisibility EntryType = "toggle_visibility"
)

// Entry is one reversible edit. Only the fields relevant to Type are set.
type Entry struct {
	Type EntryType `json:"type"`

	// add_stroke
	Stroke *Stroke `json:"stroke,omitempty"`

	// import_image / remove_image
	Image *ImageLayer `json:"image,omitempty"`
	Index int         `json:"index,omitempty"`

	// transform_image / toggle_visibility
	LayerID string    `json:"layerId,omitempty"`
	Before  Transform `json:"before"`
	After   Transform `json:"after"`

	VisibleBefore bool `json:"visibleBefore,omitempty"`
	VisibleAfter  bool `json:"visibleAfter,omitempty"`

	// clear_all
	Previous *Snapshot `json:"previous,omitempty"`
}

func (e Entry) apply(r *Registry) error {
	switch e.Type {
	case EntryAddStroke:
		r.appendStroke(*e.Stroke)
	case EntryClearAll:
		r.clear()
	case EntryImportImage:
		r.insertImage(*e.Image, e.Index)
	case EntryRemoveImage:
		if _, _, ok := r.removeImage(e.Image.ID); !ok {
			return fmt.Errorf("image layer not found: %s", e.Image.ID)
		}
	case EntryTransformImage:
		if !r.setTransform(e.LayerID, e.After) {
			return fmt.Errorf("image layer not found: %s", e.LayerID)
		}
	case EntryToggleVisibility:
		if !r.setVisible(e.LayerID, e.VisibleAfter) {
			return fmt.Errorf("layer not found: %s", e.LayerID)
		}
	default:
		return fmt.Errorf("unknown entry type: %s", e.Type)
	}
	return nil
}

func (e Entry) revert(r *Registry) error {
	switch e.Type {
	case EntryAddStroke:
		if !r.removeStroke(e.Stroke.ID) {
			return fmt.Errorf("stroke not found: %s", e.Stroke.ID)
		}
	case EntryClearAll:
		r.Restore(*e.Previous)
	case EntryImportImage:
		if _, _, ok := r.removeImage(e.Image.ID); !ok {
			return fmt.Errorf("image layer not found: %s", e.Image.ID)
		}
	case EntryRemoveImage:
		r.insertImage(*e.Image, e.Index)
	case EntryTransformImage:
		if !r.setTransform(e.LayerID, e.Before) {
			return fmt.Errorf("image layer not found: %s", e.LayerID)
		}
	case EntryToggleVisibility:
		if !r.setVisible(e.LayerID, e.VisibleBefore) {
			return fmt.Errorf("layer not found: %s", e.LayerID)
		}
	default:
		return fmt.Errorf("unknown entry type: %s", e.Type)
	}
	return nil
}

// History is a linear undo/redo log over a registry.
type History struct {
	undo  []Entry
	redo  []Entry
	limit int
}

// NewHistory creates a history keeping at most limit undo entries.
// A limit of zero or less keeps everything.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Execute applies e to r, records it, and discards the redo stack.
func (h *History) Execute(r *Registry, e Entry) error {
	if err := e.apply(r); err != nil {
		return err
	}
	h.undo = append(h.undo, e)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
	return nil
}

// Undo reverts the most recent entry. It reports false when there was
// nothing to undo.
func (h *History) Undo(r *Registry) (bool, error) {
	if len(h.undo) == 0 {
		return false, nil
	}
	e := h.undo[len(h.undo)-1]
	if err := e.revert(r); err != nil {
		return false, err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
	return true, nil
}

// Redo re-applies the most recently undone entry. It reports false when
// there was nothing to redo.
func (h *History) Redo(r *Registry) (bool, error) {
	if len(h.redo) == 0 {
		return false, nil
	}
	e := h.redo[len(h.redo)-1]
	if err := e.apply(r); err != nil {
		return false, err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e)
	return true, nil
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
