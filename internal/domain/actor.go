package domain

// ActorType identifies who triggers a lifecycle event
type ActorType string

const (
	ActorCustomer ActorType = "customer"
	ActorProvider ActorType = "provider"
	ActorAdmin    ActorType = "admin"
	ActorSystem   ActorType = "system"
)

// AllActorTypes lists every actor type
var AllActorTypes = []ActorType{
	ActorCustomer,
	ActorProvider,
	ActorAdmin,
	ActorSystem,
}

// IsValid returns true if the actor type is recognized
func (a ActorType) IsValid() bool {
	for _, v := range AllActorTypes {
		if a == v {
			return true
		}
	}
	return false
}

// ParseActorType converts a string to an ActorType
func ParseActorType(s string) (ActorType, error) {
	actorType := ActorType(s)
	if !actorType.IsValid() {
		return "", ErrUnknownActorType
	}
	return actorType, nil
}

// Actor is the party triggering a lifecycle event
type Actor struct {
	Type ActorType
	ID   string
}

// SystemActor is used by reconciliation jobs firing automatic events
var SystemActor = Actor{Type: ActorSystem, ID: "system"}

// IsSystem returns true for automatic (reconciler-driven) actors
func (a Actor) IsSystem() bool {
	return a.Type == ActorSystem
}
