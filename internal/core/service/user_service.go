package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// sniffLen is how much of an upload is read to detect its media type.
const sniffLen = 3072

// UserService implements profile management on top of the user and blob stores.
type UserService struct {
	users   ports.UserStore
	blobs   ports.BlobStore
	janitor ports.BlobJanitor
	cache   ports.IdentityCache
	log     zerolog.Logger
}

// NewUserService wires the service. janitor and cache are optional.
func NewUserService(
	users ports.UserStore,
	blobs ports.BlobStore,
	janitor ports.BlobJanitor,
	cache ports.IdentityCache,
	log zerolog.Logger,
) *UserService {
	return &UserService{users: users, blobs: blobs, janitor: janitor, cache: cache, log: log}
}

func (s *UserService) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateProfile applies the non-blank fields of in to the account id. A
// picture URL supplied here is only a reference; the blob behind it is never
// deleted on this account's behalf.
func (s *UserService) UpdateProfile(ctx context.Context, sec domain.SecurityContext, id string, in ports.UpdateProfileInput) (*domain.User, error) {
	if err := authorize(sec, id); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	owned := user.UploadedPicture
	if v := strings.TrimSpace(in.Fullname); v != "" {
		user.Fullname = v
	}
	if v := strings.TrimSpace(in.ProfilePicture); v != "" {
		user.ProfilePicture = v
		// Pointing the picture elsewhere releases the uploaded blob.
		if v != owned {
			user.UploadedPicture = ""
		}
	}
	user.UpdatedAt = time.Now().UTC()

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.invalidate(ctx, saved.Username)
	if owned != saved.UploadedPicture {
		s.discard(saved.ID, owned)
	}

	s.log.Info().Str("user_id", id).Str("actor_id", sec.Identity.ID).Msg("profile updated")
	return saved, nil
}

// DeleteProfile removes the account. It reports domain.ErrUserNotFound only
// when the account did not exist beforehand.
func (s *UserService) DeleteProfile(ctx context.Context, sec domain.SecurityContext, id string) error {
	if err := authorize(sec, id); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	s.invalidate(ctx, user.Username)
	s.discard(user.ID, user.UploadedPicture)

	s.log.Info().Str("user_id", id).Str("actor_id", sec.Identity.ID).Msg("profile deleted")
	return nil
}

// UploadProfilePicture stores an image and points the account's profile
// picture at it.
func (s *UserService) UploadProfilePicture(ctx context.Context, sec domain.SecurityContext, id string, in ports.UploadInput) (*ports.BlobInfo, error) {
	if err := authorize(sec, id); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("upload picture: %w", err)
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	body, err := requireImage(in.Body)
	if err != nil {
		return nil, err
	}

	info, err := s.blobs.Put(ctx, in.Filename, body)
	if err != nil {
		return nil, fmt.Errorf("upload picture: %w", err)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		s.discard(id, info.URL)
		return nil, err
	}
	previous := user.UploadedPicture
	user.ProfilePicture = info.URL
	user.UploadedPicture = info.URL
	user.UpdatedAt = time.Now().UTC()
	if _, err := s.users.Save(ctx, user); err != nil {
		s.discard(id, info.URL)
		return nil, fmt.Errorf("upload picture: %w", err)
	}

	s.invalidate(ctx, user.Username)
	s.discard(id, previous)
	return info, nil
}

// UploadFile stores an arbitrary file for an authenticated caller.
func (s *UserService) UploadFile(ctx context.Context, sec domain.SecurityContext, in ports.UploadInput) (*ports.BlobInfo, error) {
	if !sec.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	info, err := s.blobs.Put(ctx, in.Filename, in.Body)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	s.log.Debug().Str("actor_id", sec.Identity.ID).Str("url", info.URL).Msg("file uploaded")
	return info, nil
}

// SetRoles replaces the roles of account id. Only ADMIN callers may do this.
func (s *UserService) SetRoles(ctx context.Context, sec domain.SecurityContext, id string, roles []domain.Role) (*domain.User, error) {
	if !sec.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !sec.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	normalized, err := domain.NormalizeRoles(roles)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Roles = normalized
	user.UpdatedAt = time.Now().UTC()

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("set roles: %w", err)
	}
	s.invalidate(ctx, saved.Username)

	s.log.Info().Str("user_id", id).Str("actor_id", sec.Identity.ID).Msg("roles updated")
	return saved, nil
}

func authorize(sec domain.SecurityContext, ownerID string) error {
	if !sec.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !domain.CanActOn(sec, ownerID) {
		return domain.ErrForbidden
	}
	return nil
}

// requireImage sniffs the start of r and returns a reader replaying the whole
// stream when it holds an image.
func requireImage(r io.Reader) (io.Reader, error) {
	if r == nil {
		return nil, domain.ErrInvalidInput
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrInvalidInput
	}
	head = head[:n]

	if !strings.HasPrefix(mimetype.Detect(head).String(), "image/") {
		return nil, domain.ErrUnsupportedMedia
	}
	return io.MultiReader(bytes.NewReader(head), r), nil
}

func (s *UserService) invalidate(ctx context.Context, username string) {
	if s.cache == nil || username == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("identity cache invalidation failed")
	}
}

func (s *UserService) discard(ownerID, url string) {
	if s.janitor == nil || url == "" {
		return
	}
	s.janitor.Enqueue(ports.BlobCleanupJob{OwnerID: ownerID, URL: url})
}
