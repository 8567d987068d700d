package api

import (
	"sort"

	"voice-relay/internal/domain"
)

func ToApiUser(u domain.User) UserInfo {
	var roomID *string
	if u.RoomID != "" {
		id := u.RoomID
		roomID = &id
	}

	return UserInfo{
		ID:       u.ID,
		Username: u.Username,
		RoomID:   roomID,
		InCall:   u.InCall,
	}
}

func ToApiUsers(users []domain.User) []UserInfo {
	result := make([]UserInfo, len(users))
	for i, u := range users {
		result[i] = ToApiUser(u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func ToApiRoom(r domain.Room) RoomInfo {
	members := r.MemberIDs()
	sort.Strings(members)

	return RoomInfo{
		ID:      r.ID,
		Name:    r.Name,
		Members: members,
	}
}

func ToApiRooms(rooms []domain.Room) []RoomInfo {
	result := make([]RoomInfo, len(rooms))
	for i, r := range rooms {
		result[i] = ToApiRoom(r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
