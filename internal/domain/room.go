package domain

type Room struct {
	ID      string
	Name    string
	Members map[string]struct{}
}

func (r *Room) AddMember(userID string) {
	if r.Members == nil {
		r.Members = make(map[string]struct{})
	}
	r.Members[userID] = struct{}{}
}

func (r *Room) RemoveMember(userID string) {
	delete(r.Members, userID)
}

func (r *Room) HasMember(userID string) bool {
	_, ok := r.Members[userID]
	return ok
}

func (r *Room) MemberIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for id := range r.Members {
		ids = append(ids, id)
	}
	return ids
}

type RoomRepository interface {
	Create(room Room) error
	Save(room Room) error
	GetByID(id string) (Room, error)
	GetAll() ([]Room, error)
	Delete(id string) error
}
