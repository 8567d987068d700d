package service

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"voice-relay/internal/domain"
	"voice-relay/internal/metrics"
)

// RoomDropper releases per-room relay resources when a room is deleted.
type RoomDropper interface {
	DropRoom(roomID string)
}

type RoomService struct {
	rooms   domain.RoomRepository
	users   domain.UserRepository
	dropper RoomDropper

	// mu serializes membership changes so a user's RoomID and the room
	// member set never disagree.
	mu        sync.Mutex
	multiRoom bool
}

func NewRoomService(rooms domain.RoomRepository, users domain.UserRepository, dropper RoomDropper, multiRoom bool) *RoomService {
	return &RoomService{
		rooms:     rooms,
		users:     users,
		dropper:   dropper,
		multiRoom: multiRoom,
	}
}

func (s *RoomService) SetMultiRoom(multiRoom bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.multiRoom = multiRoom
}

func (s *RoomService) CreateRoom(name string) (domain.Room, error) {
	room := domain.Room{
		ID:      uuid.NewString(),
		Name:    name,
		Members: make(map[string]struct{}),
	}

	if err := s.rooms.Create(room); err != nil {
		return domain.Room{}, err
	}

	metrics.ActiveRooms.Inc()
	metrics.RoomsCreatedTotal.Inc()
	return room, nil
}

func (s *RoomService) DeleteRoom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.rooms.GetByID(id)
	if err != nil {
		return err
	}

	for memberID := range room.Members {
		s.detachUserFromRoom(memberID, id)
	}

	if err := s.rooms.Delete(id); err != nil {
		return err
	}

	if s.dropper != nil {
		s.dropper.DropRoom(id)
	}

	metrics.ActiveRooms.Dec()
	return nil
}

func (s *RoomService) GetRoom(id string) (domain.Room, error) {
	return s.rooms.GetByID(id)
}

func (s *RoomService) GetAllRooms() ([]domain.Room, error) {
	return s.rooms.GetAll()
}

// Join places the user into the room. Joining a room the user is already in
// is a no-op. In single-room mode joining a new room moves the user out of
// the previous one.
func (s *RoomService) Join(userID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	room, err := s.rooms.GetByID(roomID)
	if err != nil {
		return err
	}

	if user.InRoom(roomID) {
		return nil
	}

	if user.RoomID == "" {
		user.RoomID = roomID
	} else if s.multiRoom {
		user.SideRoomIDs = append(user.SideRoomIDs, roomID)
	} else {
		s.removeMember(user.RoomID, userID)
		user.RoomID = roomID
	}

	room.AddMember(userID)
	if err := s.rooms.Save(room); err != nil {
		return err
	}
	return s.users.Save(user)
}

// Leave removes the user from the room. An empty roomID leaves the user's
// primary room. Leaving a room the user is not in is a no-op.
func (s *RoomService) Leave(userID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	if roomID == "" {
		roomID = user.RoomID
	}
	if roomID == "" || !user.InRoom(roomID) {
		return nil
	}

	s.removeMember(roomID, userID)

	if user.RoomID == roomID {
		user.RoomID = ""
		if len(user.SideRoomIDs) > 0 {
			user.RoomID = user.SideRoomIDs[0]
			user.SideRoomIDs = user.SideRoomIDs[1:]
		}
	} else {
		for i, id := range user.SideRoomIDs {
			if id == roomID {
				user.SideRoomIDs = append(user.SideRoomIDs[:i], user.SideRoomIDs[i+1:]...)
				break
			}
		}
	}

	return s.users.Save(user)
}

// LeaveAll removes the user from every room they are in. Used on disconnect.
func (s *RoomService) LeaveAll(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	if user.RoomID != "" {
		s.removeMember(user.RoomID, userID)
	}
	for _, id := range user.SideRoomIDs {
		s.removeMember(id, userID)
	}

	user.RoomID = ""
	user.SideRoomIDs = nil
	return s.users.Save(user)
}

func (s *RoomService) removeMember(roomID, userID string) {
	room, err := s.rooms.GetByID(roomID)
	if err != nil {
		return
	}
	room.RemoveMember(userID)
	_ = s.rooms.Save(room)
}

func (s *RoomService) detachUserFromRoom(userID, roomID string) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return
	}

	if user.RoomID == roomID {
		user.RoomID = ""
		if len(user.SideRoomIDs) > 0 {
			user.RoomID = user.SideRoomIDs[0]
			user.SideRoomIDs = user.SideRoomIDs[1:]
		}
	} else {
		for i, id := range user.SideRoomIDs {
			if id == roomID {
				user.SideRoomIDs = append(user.SideRoomIDs[:i], user.SideRoomIDs[i+1:]...)
				break
			}
		}
	}
	_ = s.users.Save(user)
}
