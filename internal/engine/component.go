package engine

// Component is anything that can be attached to an entity.
type Component interface {
	SetEntity(id EntityID)
	Entity() EntityID
}

// CollisionHandler is implemented by components that want collision callbacks.
// The physics world calls these on every component of both entities in a pair.
type CollisionHandler interface {
	OnCollisionEnter(other EntityID)
	OnCollisionExit(other EntityID)
}

// TriggerHandler is the trigger-volume counterpart of CollisionHandler.
type TriggerHandler interface {
	OnTriggerEnter(other EntityID)
	OnTriggerExit(other EntityID)
}

// BaseComponent provides default implementation for Component interface
type BaseComponent struct {
	entity EntityID
}

func (b *BaseComponent) SetEntity(id EntityID) {
	b.entity = id
}

func (b *BaseComponent) Entity() EntityID {
	return b.entity
}
