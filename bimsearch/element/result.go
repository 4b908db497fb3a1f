package element

// AttributeName is the record attribute the UI shows as the item name.
const AttributeName = "Name"

// ResultItem is the projection of a Record shown in the results tree.
type ResultItem struct {
	ID          string
	Name        string
	Category    string
	ExternalID  int64
	ContainerID string
}

// NewResultItem projects a record into its UI representation.
func NewResultItem(r Record) ResultItem {
	return ResultItem{
		ID:          r.Identity().String(),
		Name:        r.StringAttribute(AttributeName),
		Category:    r.Category,
		ExternalID:  r.ExternalID,
		ContainerID: r.ContainerID,
	}
}

func (i ResultItem) Identity() Identity {
	return Identity{ContainerID: i.ContainerID, ExternalID: i.ExternalID}
}

// ResultGroup is an ordered, user-named bucket of result items produced by
// one search invocation. Groups are append-only: later searches never mutate
// earlier groups.
type ResultGroup struct {
	ID        int
	Token     string // search correlation token, not shown in the UI
	Name      string
	Items     []ResultItem
	Collapsed bool
	Editing   bool
}

// RemoveItem deletes the item with the given identity from the group.
// It reports whether an item was removed.
func (g *ResultGroup) RemoveItem(id Identity) bool {
	for i, item := range g.Items {
		if item.Identity() == id {
			g.Items = append(g.Items[:i], g.Items[i+1:]...)
			return true
		}
	}
	return false
}
