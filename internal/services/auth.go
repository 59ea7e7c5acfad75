package services

import (
	"context"
	"fmt"
	"time"

	"leaderboard-service/internal/config"
	"leaderboard-service/internal/models"
	"leaderboard-service/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo   *repository.UserRepository
	regionRepo *repository.RegionRepository
	cfg        config.JWTConfig
}

func NewAuthService(userRepo *repository.UserRepository, regionRepo *repository.RegionRepository) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		regionRepo: regionRepo,
		cfg:        config.ServiceConfig.JWT,
	}
}

func isValidRole(role models.Role) bool {
	return role == models.RoleAdmin || role == models.RoleTeacher || role == models.RoleStudent
}

func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("validation failed: name, email and password are required")
	}
	if !isValidRole(req.Role) {
		return nil, fmt.Errorf("validation failed: invalid role: %s", req.Role)
	}

	var regionID bson.ObjectID
	if req.Role == models.RoleStudent {
		if req.RegionID == "" {
			return nil, fmt.Errorf("validation failed: students must belong to a region")
		}
		var err error
		regionID, err = bson.ObjectIDFromHex(req.RegionID)
		if err != nil {
			return nil, fmt.Errorf("invalid region ID format: %w", err)
		}

		region, err := s.regionRepo.FindByID(ctx, regionID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("region not found")
			}
			return nil, fmt.Errorf("failed to get region: %w", err)
		}
		if !region.IsActive {
			return nil, fmt.Errorf("region not found")
		}
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("validation failed: email already registered")
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		RegionID:     regionID,
		IsActive:     true,
	}

	return s.userRepo.New(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("validation failed: email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.Lifetime)),
			Issuer:    s.cfg.Issuer,
		},
		UserID: user.ID.Hex(),
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
	if !user.RegionID.IsZero() {
		claims.RegionID = user.RegionID.Hex()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("error generate token string: %w", err)
	}
	return tokenString, nil
}
