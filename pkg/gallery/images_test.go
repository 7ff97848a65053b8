package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageListDeduplicates(t *testing.T) {
	list := NewImageList()

	assert.True(t, list.Add("https://arweave.net/1.png"))
	assert.True(t, list.Add("https://arweave.net/2.png"))
	assert.False(t, list.Add("https://arweave.net/1.png"))

	assert.Equal(t, []string{"https://arweave.net/1.png", "https://arweave.net/2.png"}, list.Items())
	assert.Equal(t, 2, list.Len())
	assert.False(t, list.Add("https://arweave.net/2.png"))
	assert.Equal(t, 2, list.Len())
}

func TestImageListItemsIsACopy(t *testing.T) {
	list := NewImageList()
	list.Add("a")

	items := list.Items()
	items[0] = "mutated"

	assert.Equal(t, []string{"a"}, list.Items())
}
