package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/msmirnov/school-library/internal/errs"
	"github.com/msmirnov/school-library/internal/model"
)

func (s *Service) RegisterUser(ctx context.Context, userReq model.UserCreateRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(userReq.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := model.User{
		Username: userReq.Username,
		Password: string(hash),
		Email:    userReq.Email,
		Role:     model.RoleUser,
	}
	return s.users.CreateUser(ctx, user)
}

// VerifyUser checks the credentials and returns the stored user.
func (s *Service) VerifyUser(ctx context.Context, username, password string) (model.User, error) {
	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return model.User{}, errs.ErrForbidden
	}
	return user, nil
}
