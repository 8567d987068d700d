package service

import (
	"github.com/google/uuid"

	"voice-relay/internal/domain"
	"voice-relay/internal/metrics"
)

type UserService struct {
	repo domain.UserRepository
}

func NewUserService(repo domain.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Register(username string, connectionID string) (domain.User, error) {
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		ConnectionID: connectionID,
	}

	if err := s.repo.Create(user); err != nil {
		return domain.User{}, err
	}

	metrics.ActiveUsers.Inc()
	metrics.UsersRegisteredTotal.Inc()
	return user, nil
}

func (s *UserService) GetUser(id string) (domain.User, error) {
	return s.repo.GetByID(id)
}

func (s *UserService) GetUserByConnection(connectionID string) (domain.User, error) {
	return s.repo.GetByConnectionID(connectionID)
}

func (s *UserService) GetAll() ([]domain.User, error) {
	return s.repo.GetAll()
}

func (s *UserService) SetInCall(id string, inCall bool) error {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	user.InCall = inCall
	return s.repo.Save(user)
}

func (s *UserService) Remove(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	metrics.ActiveUsers.Dec()
	return nil
}
