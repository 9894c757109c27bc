package sidecar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by a Store that holds nothing for a page.
var ErrNotFound = errors.New("sidecar not found")

// Store persists side data per gallery and page.
type Store interface {
	GetSidecar(ctx context.Context, gallery string, page int) (*Data, error)
	SaveSidecar(ctx context.Context, gallery string, page int, data Data) error
}

// Remote is the photo API.
type Remote interface {
	GetComments(ctx context.Context, photoID string) ([]Comment, error)
	GetFavoritesCount(ctx context.Context, photoID string) (int, error)
	GetOwner(ctx context.Context, photoID string) (Owner, error)
	GetOwnerAvatar(ctx context.Context, avatarURL string) ([]byte, error)
}

// PhotoResolver maps a page index to the remote photo id. "" means the page
// has no remote counterpart.
type PhotoResolver interface {
	PhotoID(page int) string
}

// Service populates side data with a cache-or-fetch policy.
type Service struct {
	gallery string
	photos  PhotoResolver
	store   Store
	remote  Remote
	logger  *slog.Logger
	group   singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithStore sets the local store.
func WithStore(store Store) ServiceOption {
	return func(s *Service) {
		s.store = store
	}
}

// WithRemote sets the photo API client.
func WithRemote(remote Remote) ServiceOption {
	return func(s *Service) {
		s.remote = remote
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service for one gallery.
func NewService(gallery string, photos PhotoResolver, opts ...ServiceOption) *Service {
	s := &Service{
		gallery: gallery,
		photos:  photos,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PopulateSidecar returns the side data of page. Concurrent calls for the
// same page share one lookup.
func (s *Service) PopulateSidecar(ctx context.Context, page int) (Data, error) {
	v, err, _ := s.group.Do(strconv.Itoa(page), func() (any, error) {
		return s.populate(ctx, page)
	})
	if err != nil {
		return Data{}, err
	}
	data, ok := v.(Data)
	if !ok {
		return Data{}, fmt.Errorf("unexpected sidecar result %T", v)
	}
	return data, nil
}

func (s *Service) populate(ctx context.Context, page int) (Data, error) {
	if s.store != nil {
		cached, err := s.store.GetSidecar(ctx, s.gallery, page)
		switch {
		case err == nil && cached != nil:
			return *cached, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			s.logger.Warn("failed to read cached sidecar", "page", page, "error", err)
		}
	}

	photoID := ""
	if s.photos != nil {
		photoID = s.photos.PhotoID(page)
	}
	if s.remote == nil || photoID == "" {
		return Data{}, nil
	}

	data, err := s.fetch(ctx, photoID)
	if err != nil {
		return Data{}, fmt.Errorf("failed to fetch sidecar for page %d: %w", page, err)
	}

	if s.store != nil {
		if err := s.store.SaveSidecar(ctx, s.gallery, page, data); err != nil {
			s.logger.Warn("failed to cache sidecar", "page", page, "error", err)
		}
	}
	return data, nil
}

func (s *Service) fetch(ctx context.Context, photoID string) (Data, error) {
	var data Data

	comments, err := s.remote.GetComments(ctx, photoID)
	if err != nil {
		return Data{}, err
	}
	data.Comments = comments

	favorites, err := s.remote.GetFavoritesCount(ctx, photoID)
	if err != nil {
		return Data{}, err
	}
	data.Favorites = favorites

	owner, err := s.remote.GetOwner(ctx, photoID)
	if err != nil {
		return Data{}, err
	}
	data.OwnerName = owner.Name

	if owner.AvatarURL != "" {
		avatar, err := s.remote.GetOwnerAvatar(ctx, owner.AvatarURL)
		if err != nil {
			s.logger.Debug("owner avatar unavailable", "photo", photoID, "error", err)
		} else {
			data.OwnerAvatar = avatar
		}
	}
	return data, nil
}
