package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePath(t *testing.T) {
	t.Run("known schemes", func(t *testing.T) {
		for _, scheme := range Schemes {
			s, rest, err := ParsePath(string(scheme) + "://Docs/a.txt")
			assert.NoError(t, err)
			assert.Equal(t, scheme, s)
			assert.Equal(t, "Docs/a.txt", rest)
		}
	})

	t.Run("empty remainder", func(t *testing.T) {
		s, rest, err := ParsePath("local://")
		assert.NoError(t, err)
		assert.Equal(t, SchemeLocal, s)
		assert.Equal(t, "", rest)
	})

	t.Run("backslashes normalized", func(t *testing.T) {
		_, rest, err := ParsePath(`local://Desktop\sub\a.txt`)
		assert.NoError(t, err)
		assert.Equal(t, "Desktop/sub/a.txt", rest)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, _, err := ParsePath("ftp://host/file")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("missing scheme", func(t *testing.T) {
		_, _, err := ParsePath("/home/user/file")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestSegments(t *testing.T) {
	assert.Nil(t, Segments(""))
	assert.Equal(t, []string{"Desktop"}, Segments("Desktop/"))
	assert.Equal(t, []string{"Desktop", "notes"}, Segments("Desktop/notes"))
	assert.Equal(t, []string{"a", "b"}, Segments("a//b/"))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "local://Desktop/a.txt", Join("local://Desktop/", "a.txt", false))
	assert.Equal(t, "local://Desktop/sub/", Join("local://Desktop/", "sub", true))
	assert.Equal(t, "local://Desktop/sub/", Join("local://Desktop", "sub", true))
}

func TestIsDirPath(t *testing.T) {
	assert.True(t, IsDirPath("local://Desktop/"))
	assert.False(t, IsDirPath("local://Desktop/a.txt"))
}
