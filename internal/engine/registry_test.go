package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type marker struct {
	BaseComponent
	value int
}

type other struct {
	BaseComponent
}

func TestSpawnAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry("test")
	a := r.Spawn("a")
	b := r.Spawn("b")

	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, mgl64.QuatIdent(), a.Transform.Rotation)
}

func TestAddComponentSetsOwner(t *testing.T) {
	r := NewRegistry("test")
	e := r.Spawn("e")
	m := &marker{value: 3}
	e.AddComponent(m)

	assert.Equal(t, e.ID, m.Entity())
	got := GetComponent[*marker](e)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.value)
	assert.Nil(t, GetComponent[*other](e))
}

func TestLookupSkipsInactive(t *testing.T) {
	r := NewRegistry("test")
	e := r.Spawn("e")
	e.AddComponent(&marker{})

	_, ok := Lookup[*marker](r, e.ID)
	assert.True(t, ok)

	e.Active = false
	_, ok = Lookup[*marker](r, e.ID)
	assert.False(t, ok)

	_, ok = Lookup[*marker](r, 999)
	assert.False(t, ok)
}

func TestEntitiesWithPreservesSpawnOrder(t *testing.T) {
	r := NewRegistry("test")
	var want []EntityID
	for i := 0; i < 5; i++ {
		e := r.Spawn("e")
		if i%2 == 0 {
			e.AddComponent(&marker{value: i})
			want = append(want, e.ID)
		}
	}
	assert.Equal(t, want, EntitiesWith[*marker](r))
}

func TestDestroy(t *testing.T) {
	r := NewRegistry("test")
	a := r.Spawn("a")
	b := r.Spawn("b")
	r.Destroy(a.ID)

	assert.Nil(t, r.Get(a.ID))
	assert.Equal(t, b, r.Get(b.ID))
	assert.Equal(t, 1, r.Len())
	r.Destroy(a.ID)
	assert.Equal(t, 1, r.Len())
}

func TestRemoveComponent(t *testing.T) {
	r := NewRegistry("test")
	e := r.Spawn("e")
	e.AddComponent(&marker{})
	e.AddComponent(&other{})

	assert.True(t, RemoveComponent[*marker](e))
	assert.False(t, RemoveComponent[*marker](e))
	assert.Len(t, e.Components(), 1)
}

func TestFindByNameAndTag(t *testing.T) {
	r := NewRegistry("test")
	floor := r.Spawn("Floor")
	floor.Tags = []string{"static"}
	box := r.Spawn("Box")
	box.Tags = []string{"dynamic", "pickup"}

	assert.Equal(t, box, r.FindByName("Box"))
	assert.Nil(t, r.FindByName("Missing"))
	assert.Equal(t, []*Entity{box}, r.FindByTag("pickup"))
	assert.Empty(t, r.FindByTag("none"))
}

func TestTransformLocalWorldRoundTrip(t *testing.T) {
	tr := Transform{
		Position: mgl64.Vec3{1, 2, 3},
		Rotation: mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0}),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
	p := mgl64.Vec3{4, -1, 0.5}
	back := tr.ToWorld(tr.ToLocal(p))
	assert.InDelta(t, p.X(), back.X(), 1e-9)
	assert.InDelta(t, p.Y(), back.Y(), 1e-9)
	assert.InDelta(t, p.Z(), back.Z(), 1e-9)

	zero := Transform{}
	assert.Equal(t, mgl64.QuatIdent(), zero.Orientation())
}

func TestClearKeepsIDsMonotonic(t *testing.T) {
	r := NewRegistry("test")
	a := r.Spawn("a")
	a.AddComponent(&marker{})
	r.Clear()

	assert.Zero(t, r.Len())
	assert.Nil(t, r.Get(a.ID))
	assert.Empty(t, EntitiesWith[*marker](r))

	b := r.Spawn("b")
	assert.Greater(t, b.ID, a.ID)
}
