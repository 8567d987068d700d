package memory

import (
	"maps"
	"sync"

	"voice-relay/internal/domain"
)

type RoomRepository struct {
	rooms map[string]domain.Room
	mu    sync.RWMutex
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{
		rooms: make(map[string]domain.Room),
	}
}

// cloneRoom copies the member set so callers never alias the stored map.
func cloneRoom(room domain.Room) domain.Room {
	room.Members = maps.Clone(room.Members)
	return room
}

func (r *RoomRepository) Create(room domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; ok {
		return domain.ErrRoomAlreadyExists
	}
	r.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *RoomRepository) Save(room domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *RoomRepository) GetByID(id string) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (r *RoomRepository) GetAll() ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, cloneRoom(room))
	}
	return rooms, nil
}

func (r *RoomRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return domain.ErrRoomNotFound
	}

	delete(r.rooms, id)
	return nil
}
