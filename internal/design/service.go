package design

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/partyplanner/studio/backend-go/internal/export"
	"github.com/partyplanner/studio/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("design not found")
	ErrForbidden = errors.New("forbidden")
	ErrNoName    = errors.New("name is required")
)

// Design is a saved export. Only the flattened raster is kept; the layers
// that produced it are not.
type Design struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Save stores img as a new design record.
func (s *Service) Save(ctx context.Context, ownerID, sessionID, name string, img image.Image) (*Design, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNoName
	}

	data, err := export.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	d := Design{
		ID:        typeid.NewDesignID(),
		OwnerID:   ownerID,
		SessionID: sessionID,
		Name:      name,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, d, data); err != nil {
		return nil, fmt.Errorf("save design: %w", err)
	}
	return &d, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Design, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Image returns the PNG bytes of a design the user owns.
func (s *Service) Image(ctx context.Context, id, userID string) ([]byte, error) {
	ownerID, data, err := s.store.Image(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	return data, nil
}
