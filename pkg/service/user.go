package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/perfumery/pkg/auth"
	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrEmailTaken = errors.New("email is already registered")

type UserService struct {
	users  UserStore
	tokens *auth.TokenManager
	audit  *Auditor
	logger *zap.Logger
}

func NewUserService(users UserStore, tokens *auth.TokenManager, audit *Auditor, logger *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, audit: audit, logger: logger}
}

// Session is returned on register and login.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account and signs it in.
func (s *UserService) Register(ctx context.Context, req validation.RegisterRequest) (*Session, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.create(ctx, req.Name, req.Email, req.Phone, req.Password, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *UserService) Login(ctx context.Context, req validation.LoginRequest) (*Session, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.Hex()))
	return s.session(user)
}

// Create is the admin path and may assign any role.
func (s *UserService) Create(ctx context.Context, req validation.CreateUserRequest) (*models.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}

	user, err := s.create(ctx, req.Name, req.Email, req.Phone, req.Password, role)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "user", "create", user.ID.Hex(), bson.M{"email": user.Email, "role": user.Role})
	return user, nil
}

func (s *UserService) create(ctx context.Context, name, email, phone, password string, role models.Role) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *UserService) List(ctx context.Context, p repository.Page) (*repository.List[models.User], error) {
	return s.users.List(ctx, p)
}

func (s *UserService) Update(ctx context.Context, id primitive.ObjectID, patch validation.UserPatch) (*models.User, error) {
	if err := validation.ValidateUserPatch(patch); err != nil {
		return nil, err
	}

	set := bson.M{}
	fields := []string{}
	if patch.Name != nil {
		set["name"] = strings.TrimSpace(*patch.Name)
		fields = append(fields, "name")
	}
	if patch.Email != nil {
		set["email"] = normalizeEmail(*patch.Email)
		fields = append(fields, "email")
	}
	if patch.Phone != nil {
		set["phone"] = strings.TrimSpace(*patch.Phone)
		fields = append(fields, "phone")
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		set["passwordHash"] = hash
		fields = append(fields, "password")
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
		fields = append(fields, "role")
	}

	user, err := s.users.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.audit.Record(ctx, "user", "update", id.Hex(), bson.M{"fields": fields})
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "user", "delete", id.Hex(), nil)
	return nil
}
