package element

import (
	"testing"

	"github.com/icrowley/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityString(t *testing.T) {
	id := Identity{ContainerID: "model-a", ExternalID: 42}
	assert.Equal(t, "model-a42", id.String())
}

func TestNewResultItem(t *testing.T) {
	r := Record{
		ContainerID: "c1",
		ExternalID:  7,
		Category:    "Door",
		Attributes: map[string]AttributeValue{
			"Name": {Value: "West exit"},
			"Tag":  {Value: "D-07"},
		},
	}
	item := NewResultItem(r)
	assert.Equal(t, "c17", item.ID)
	assert.Equal(t, "West exit", item.Name)
	assert.Equal(t, "Door", item.Category)
	assert.Equal(t, r.Identity(), item.Identity())
}

func TestNewResultItemMissingName(t *testing.T) {
	item := NewResultItem(Record{ContainerID: "c1", ExternalID: 1, Category: "Wall"})
	assert.Equal(t, "", item.Name)
}

func TestStringAttributeNonString(t *testing.T) {
	r := Record{Attributes: map[string]AttributeValue{"Level": {Value: 3}}}
	assert.Equal(t, "3", r.StringAttribute("Level"))
	assert.Equal(t, "", r.StringAttribute("Absent"))
}

func TestResultGroupRemoveItem(t *testing.T) {
	g := ResultGroup{ID: 1, Name: fake.ProductName()}
	for i := int64(1); i <= 3; i++ {
		g.Items = append(g.Items, ResultItem{ContainerID: "c1", ExternalID: i})
	}

	require.True(t, g.RemoveItem(Identity{ContainerID: "c1", ExternalID: 2}))
	require.Len(t, g.Items, 2)
	assert.Equal(t, int64(1), g.Items[0].ExternalID)
	assert.Equal(t, int64(3), g.Items[1].ExternalID)

	assert.False(t, g.RemoveItem(Identity{ContainerID: "c1", ExternalID: 2}))
}
