package server

import (
	"errors"
	"io"

	"kolboard/internal/middleware"
	"kolboard/internal/models"
	"kolboard/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errStorageDisabled = errors.New("object storage is not configured")

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMySettings handles PUT /api/users/me
func (s *Server) UpdateMySettings(c *fiber.Ctx) error {
	var req models.SettingsUpdate
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateSettings(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, err)
	}
	s.userService.InvalidateCard(c.UserContext(), user)
	return c.JSON(user)
}

// UploadAvatar handles POST /api/users/me/avatar (multipart field "avatar")
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	if s.avatarService == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errStorageDisabled))
	}
	file, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	// Read one byte past the cap so oversized files are rejected without buffering them whole.
	content, err := io.ReadAll(io.LimitReader(src, s.avatarLimit()+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	user, err := s.avatarService.Upload(c.UserContext(), service.UploadAvatarInput{
		UserID:      currentUser(c),
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Size:        file.Size,
		Content:     content,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.userService.InvalidateCard(c.UserContext(), user)
	return c.JSON(fiber.Map{"avatar_url": user.AvatarURL, "user": user})
}

func (s *Server) avatarLimit() int64 {
	if s.config.AvatarMaxBytes > 0 {
		return s.config.AvatarMaxBytes
	}
	return service.DefaultAvatarMaxBytes
}

// GetProfileCard handles GET /api/users/:id/card; :id may be a user id or a username.
func (s *Server) GetProfileCard(c *fiber.Ctx) error {
	card, err := s.userService.ProfileCard(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(card)
}

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	status, err := s.followService.Follow(c.UserContext(), currentUser(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	s.invalidateCards(c, targetID)
	return c.JSON(status)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	status, err := s.followService.Unfollow(c.UserContext(), currentUser(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	s.invalidateCards(c, targetID)
	return c.JSON(status)
}

// GetFollowStatus handles GET /api/users/:id/follow-status
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	targetID, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	status, err := s.followService.Status(c.UserContext(), middleware.ViewerID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// invalidateCards drops hover cards whose counters a follow change touched.
func (s *Server) invalidateCards(c *fiber.Ctx, targetID uuid.UUID) {
	ctx := c.UserContext()
	for _, id := range []uuid.UUID{currentUser(c), targetID} {
		if user, err := s.userService.GetUser(ctx, id); err == nil {
			s.userService.InvalidateCard(ctx, user)
		}
	}
}
