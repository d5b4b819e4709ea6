package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextGetSet(t *testing.T) {
	ctx := NewContext(map[string]interface{}{"name": "ada"})

	v, ok := ctx.Get("name")
	require.True(t, ok)
	assert.Equal(t, "ada", v)

	_, ok = ctx.Get("missing")
	assert.False(t, ok)

	// Base scope carries the spelled constants.
	v, ok = ctx.Get("True")
	require.True(t, ok)
	assert.Equal(t, true, v)
	v, ok = ctx.Get("None")
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestContextShadowing(t *testing.T) {
	ctx := NewContext(map[string]interface{}{"x": 1})

	release := ctx.Push()
	ctx.Set("x", 2)
	v, _ := ctx.Get("x")
	assert.Equal(t, 2, v)

	release()
	v, _ = ctx.Get("x")
	assert.Equal(t, 1, v)
}

func TestContextPushReleaseBalance(t *testing.T) {
	ctx := NewContext(nil)
	depth := ctx.Depth()

	release := ctx.Push(map[string]interface{}{"a": 1}, map[string]interface{}{"b": 2})
	assert.Equal(t, depth+2, ctx.Depth())
	assert.True(t, ctx.Has("a"))
	assert.True(t, ctx.Has("b"))

	release()
	assert.Equal(t, depth, ctx.Depth())
	assert.False(t, ctx.Has("a"))
}

func TestContextPopBaseFails(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ctx.Pop()
	require.Error(t, err)
	var ctxErr *ContextError
	assert.ErrorAs(t, err, &ctxErr)
}

func TestContextFlatten(t *testing.T) {
	ctx := NewContext(map[string]interface{}{"x": 1, "y": "low"})
	release := ctx.Push(map[string]interface{}{"y": "high", "z": true})
	defer release()

	flat := ctx.Flatten()
	assert.Equal(t, 1, flat["x"])
	assert.Equal(t, "high", flat["y"])
	assert.Equal(t, true, flat["z"])
}

func TestContextNewIsolated(t *testing.T) {
	ctx := NewContext(map[string]interface{}{"secret": 42})
	ctx.Autoescape = false
	ctx.StringIfInvalid = "??"

	iso := ctx.NewIsolated(map[string]interface{}{"open": 1})
	assert.False(t, iso.Has("secret"))
	assert.True(t, iso.Has("open"))
	assert.False(t, iso.Autoescape)
	assert.Equal(t, "??", iso.StringIfInvalid)
	assert.Same(t, ctx.RenderContext(), iso.RenderContext())
}

func TestContextBindTemplate(t *testing.T) {
	ctx := NewContext(nil)
	assert.Nil(t, ctx.BoundTemplate())

	type fakeTemplate struct{ name string }
	outer := &fakeTemplate{"outer"}
	inner := &fakeTemplate{"inner"}

	releaseOuter := ctx.BindTemplate(outer, "engine")
	assert.Same(t, outer, ctx.BoundTemplate())

	releaseInner := ctx.BindTemplate(inner, "engine")
	assert.Same(t, inner, ctx.BoundTemplate())

	releaseInner()
	assert.Same(t, outer, ctx.BoundTemplate())
	releaseOuter()
	assert.Nil(t, ctx.BoundTemplate())
}

func TestRenderContextFrames(t *testing.T) {
	rc := NewRenderContext()
	key := new(int)
	rc.Set(key, "bottom")

	release := rc.Push()
	_, ok := rc.Get(key)
	assert.False(t, ok, "top-frame lookup must not see lower frames")
	rc.Set(key, "top")
	v, ok := rc.Get(key)
	require.True(t, ok)
	assert.Equal(t, "top", v)

	release()
	v, ok = rc.Get(key)
	require.True(t, ok)
	assert.Equal(t, "bottom", v)
}
