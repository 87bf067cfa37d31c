package engine

// Registry is the entity/component store the physics world queries.
// It is not safe for concurrent mutation; concurrent reads are fine.
type Registry struct {
	Name     string
	entities map[EntityID]*Entity
	order    []EntityID
	nextID   EntityID
}

func NewRegistry(name string) *Registry {
	return &Registry{
		Name:     name,
		entities: make(map[EntityID]*Entity),
		order:    make([]EntityID, 0),
	}
}

// Spawn creates a new active entity with an identity transform.
func (r *Registry) Spawn(name string) *Entity {
	r.nextID++
	e := newEntity(r.nextID, name)
	r.entities[e.ID] = e
	r.order = append(r.order, e.ID)
	return e
}

// Destroy removes the entity and all of its components.
func (r *Registry) Destroy(id EntityID) {
	if _, ok := r.entities[id]; !ok {
		return
	}
	delete(r.entities, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Clear destroys every entity. IDs are not reused.
func (r *Registry) Clear() {
	clear(r.entities)
	r.order = r.order[:0]
}

// Get returns the entity or nil.
func (r *Registry) Get(id EntityID) *Entity {
	return r.entities[id]
}

// Transform returns the entity's transform for in-place updates.
func (r *Registry) Transform(id EntityID) (*Transform, bool) {
	e := r.entities[id]
	if e == nil {
		return nil, false
	}
	return &e.Transform, true
}

// Len is the number of live entities.
func (r *Registry) Len() int {
	return len(r.order)
}

// ForEach visits every active entity in spawn order.
func (r *Registry) ForEach(fn func(e *Entity)) {
	for _, id := range r.order {
		if e := r.entities[id]; e.Active {
			fn(e)
		}
	}
}

func (r *Registry) FindByName(name string) *Entity {
	for _, id := range r.order {
		if e := r.entities[id]; e.Name == name {
			return e
		}
	}
	return nil
}

func (r *Registry) FindByTag(tag string) []*Entity {
	var result []*Entity
	for _, id := range r.order {
		if e := r.entities[id]; e.HasTag(tag) {
			result = append(result, e)
		}
	}
	return result
}

// Lookup returns the component of type T on an entity. Inactive entities have no components.
func Lookup[T Component](r *Registry, id EntityID) (T, bool) {
	var zero T
	e := r.entities[id]
	if e == nil || !e.Active {
		return zero, false
	}
	for _, c := range e.components {
		if typed, ok := c.(T); ok {
			return typed, true
		}
	}
	return zero, false
}

// Each calls fn for every active entity carrying a T, in spawn order.
func Each[T Component](r *Registry, fn func(id EntityID, c T)) {
	for _, id := range r.order {
		if c, ok := Lookup[T](r, id); ok {
			fn(id, c)
		}
	}
}

// EntitiesWith lists active entities carrying a T, in spawn order.
func EntitiesWith[T Component](r *Registry) []EntityID {
	var ids []EntityID
	Each(r, func(id EntityID, _ T) {
		ids = append(ids, id)
	})
	return ids
}
