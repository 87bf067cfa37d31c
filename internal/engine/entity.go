package engine

// EntityID is an opaque handle. Zero is never issued.
type EntityID uint64

type Entity struct {
	ID         EntityID
	Name       string
	Tags       []string
	Transform  Transform
	Active     bool
	components []Component
}

func newEntity(id EntityID, name string) *Entity {
	return &Entity{
		ID:         id,
		Name:       name,
		Active:     true,
		Transform:  IdentityTransform(),
		components: make([]Component, 0),
	}
}

func (e *Entity) AddComponent(c Component) {
	c.SetEntity(e.ID)
	e.components = append(e.components, c)
}

// GetComponent returns the first component of type T, or the zero value.
func GetComponent[T Component](e *Entity) T {
	var zero T
	for _, c := range e.components {
		if typed, ok := c.(T); ok {
			return typed
		}
	}
	return zero
}

// RemoveComponent detaches the first component of type T. Reports whether one was removed.
func RemoveComponent[T Component](e *Entity) bool {
	for i, c := range e.components {
		if _, ok := c.(T); ok {
			e.components = append(e.components[:i], e.components[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Entity) Components() []Component {
	return e.components
}

func (e *Entity) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
