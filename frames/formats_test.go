package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImageAndVideoFile(t *testing.T) {
	assert.True(t, IsImageFile("a/b.JPG"))
	assert.True(t, IsImageFile("a/b.cr3"))
	assert.False(t, IsImageFile("a/b.mov"))

	assert.True(t, IsVideoFile("a/b.MOV"))
	assert.False(t, IsVideoFile("a/b.jpg"))

	assert.True(t, IsSupportedMedia("a/b.png"))
	assert.True(t, IsSupportedMedia("a/b.mp4"))
	assert.False(t, IsSupportedMedia("a/b.txt"))
}
