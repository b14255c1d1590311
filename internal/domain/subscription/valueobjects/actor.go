package valueobjects

// Actor identifies who caused a transition.
type Actor string

const (
	ActorGateway Actor = "gateway"
	ActorTutor   Actor = "tutor"
	ActorAdmin   Actor = "admin"
	ActorSystem  Actor = "system"
)

func (a Actor) String() string {
	return string(a)
}

func (a Actor) IsValid() bool {
	switch a {
	case ActorGateway, ActorTutor, ActorAdmin, ActorSystem:
		return true
	}
	return false
}
