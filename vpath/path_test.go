package vpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JM4ier/bitOS/vpath"
)

func TestFromStringBasic(t *testing.T) {
	p := vpath.FromString("/a/b")
	assert.Equal(t, 2, p.Len())
	name, ok := p.Name()
	assert.True(t, ok)
	assert.Equal(t, "b", name.String())
}

func TestFromStringRoot(t *testing.T) {
	assert.True(t, vpath.FromString("/").IsRoot())
	assert.True(t, vpath.FromString("").IsRoot())
}

func TestFromStringCollapsesConsecutiveSeparators(t *testing.T) {
	p := vpath.FromString("//a///b//")
	assert.Equal(t, vpath.FromString("/a/b"), p)
}

func TestToStringRoundTrip(t *testing.T) {
	for _, s := range []string{"/", "/a", "/a/b/c"} {
		p := vpath.FromString(s)
		assert.Equal(t, p, vpath.FromString(p.String()))
	}
}

func TestToStringRendersRootAsSlash(t *testing.T) {
	assert.Equal(t, "/", vpath.Root().String())
}

func TestRelativeTo(t *testing.T) {
	ancestor := vpath.FromString("/a/b")
	self := vpath.FromString("/a/b/c/d")
	rel, ok := self.RelativeTo(ancestor)
	assert.True(t, ok)
	assert.Equal(t, vpath.FromString("/c/d"), rel)

	_, ok = ancestor.RelativeTo(self)
	assert.False(t, ok)
}

func TestRelativeToSelf(t *testing.T) {
	p := vpath.FromString("/a/b")
	rel, ok := p.RelativeTo(p)
	assert.True(t, ok)
	assert.True(t, rel.IsRoot())
}

func TestHeadTail(t *testing.T) {
	head, tail := vpath.FromString("/a/b/c").HeadTail()
	assert.Equal(t, "a", head.String())
	assert.Equal(t, vpath.FromString("/b/c"), tail)

	head, tail = vpath.Root().HeadTail()
	assert.Nil(t, head)
	assert.True(t, tail.IsRoot())
}

func TestConcatThenParentIsIdentity(t *testing.T) {
	p := vpath.FromString("/a/b")
	child := p.Concat(vpath.Filename("c"))
	parent, ok := child.Parent()
	assert.True(t, ok)
	assert.Equal(t, p, parent)
}

func TestParentOfRoot(t *testing.T) {
	_, ok := vpath.Root().Parent()
	assert.False(t, ok)
}

func TestNameOfRoot(t *testing.T) {
	_, ok := vpath.Root().Name()
	assert.False(t, ok)
}
