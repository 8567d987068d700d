package domain

type User struct {
	ID           string
	Username     string
	ConnectionID string
	InCall       bool
	RoomID       string
	SideRoomIDs  []string
}

func (u *User) InRoom(roomID string) bool {
	if u.RoomID == roomID {
		return true
	}
	for _, id := range u.SideRoomIDs {
		if id == roomID {
			return true
		}
	}
	return false
}

type UserRepository interface {
	Create(user User) error
	Save(user User) error
	GetByID(id string) (User, error)
	GetByConnectionID(connectionID string) (User, error)
	GetAll() ([]User, error)
	Delete(id string) error
}
