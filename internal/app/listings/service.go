package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainlistings "stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
)

var ErrNotOwner = errors.New("listings: caller does not own this listing")

// ImageStore persists listing image blobs and serves them by URL.
type ImageStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
	Remove(ctx context.Context, key string) error
}

// Service covers host-side listing CRUD and image management. Pages,
// sessions and form scaffolding live elsewhere; this is the persistence
// edge they call into.
type Service struct {
	Listings     domainlistings.Repository
	Images       domainlistings.ImageRepository
	Reservations reservation.Repository
	Blobs        ImageStore
	Logger       *slog.Logger
	Now          func() time.Time
}

type ListingRequest struct {
	Title         string
	Description   string
	Category      string
	LocationValue string
	NightlyPrice  int64
	RoomCount     int
	BathroomCount int
	GuestLimit    int
}

func (s *Service) Create(ctx context.Context, host domainlistings.HostID, req ListingRequest) (*domainlistings.Listing, error) {
	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:            domainlistings.ListingID(uuid.NewString()),
		Host:          host,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		LocationValue: req.LocationValue,
		NightlyPrice:  req.NightlyPrice,
		RoomCount:     req.RoomCount,
		BathroomCount: req.BathroomCount,
		GuestLimit:    req.GuestLimit,
		Now:           s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Listings.Save(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *Service) Update(ctx context.Context, id domainlistings.ListingID, host domainlistings.HostID, req ListingRequest) (*domainlistings.Listing, error) {
	listing, err := s.ownedListing(ctx, id, host)
	if err != nil {
		return nil, err
	}

	updated, err := domainlistings.New(domainlistings.CreateParams{
		ID:            listing.ID,
		Host:          listing.Host,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		LocationValue: req.LocationValue,
		NightlyPrice:  req.NightlyPrice,
		RoomCount:     req.RoomCount,
		BathroomCount: req.BathroomCount,
		GuestLimit:    req.GuestLimit,
		Now:           s.now(),
	})
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = listing.CreatedAt

	if err := s.Listings.Save(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the listing. The repository cascades to images and
// reservations; blob cleanup afterwards is best effort.
func (s *Service) Delete(ctx context.Context, id domainlistings.ListingID, host domainlistings.HostID) error {
	if _, err := s.ownedListing(ctx, id, host); err != nil {
		return err
	}

	images, err := s.Images.ByListing(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Listings.Delete(ctx, id); err != nil {
		return err
	}

	for _, img := range images {
		s.removeBlob(ctx, img)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, []domainlistings.Image, error) {
	listing, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	images, err := s.Images.ByListing(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return listing, images, nil
}

func (s *Service) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	return s.Listings.Search(ctx, params)
}

// HostListing bundles a listing with its images and reservations for the
// host dashboard.
type HostListing struct {
	Listing      *domainlistings.Listing
	Images       []domainlistings.Image
	Reservations []*reservation.Reservation
}

func (s *Service) HostListings(ctx context.Context, host domainlistings.HostID) ([]HostListing, error) {
	owned, err := s.Listings.Search(ctx, domainlistings.SearchParams{Host: host})
	if err != nil {
		return nil, err
	}

	result := make([]HostListing, 0, len(owned))
	for _, listing := range owned {
		images, err := s.Images.ByListing(ctx, listing.ID)
		if err != nil {
			return nil, err
		}
		reservations, err := s.Reservations.ByListing(ctx, listing.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, HostListing{Listing: listing, Images: images, Reservations: reservations})
	}
	return result, nil
}

// AttachImage uploads the blob and records the image row.
func (s *Service) AttachImage(ctx context.Context, id domainlistings.ListingID, host domainlistings.HostID, reader io.Reader, contentType string, order int) (domainlistings.Image, error) {
	if _, err := s.ownedListing(ctx, id, host); err != nil {
		return domainlistings.Image{}, err
	}

	imageID := uuid.NewString()
	url, err := s.Blobs.Upload(ctx, blobKey(id, imageID), reader, contentType)
	if err != nil {
		return domainlistings.Image{}, fmt.Errorf("listings: upload image: %w", err)
	}

	image := domainlistings.Image{
		ID:        imageID,
		ListingID: id,
		URL:       url,
		Order:     order,
		CreatedAt: s.now(),
	}
	if err := s.Images.Save(ctx, image); err != nil {
		// The record is authoritative; drop the orphaned blob.
		s.removeBlob(ctx, image)
		return domainlistings.Image{}, err
	}
	return image, nil
}

func (s *Service) ReorderImages(ctx context.Context, id domainlistings.ListingID, host domainlistings.HostID, orders map[string]int) error {
	if _, err := s.ownedListing(ctx, id, host); err != nil {
		return err
	}
	return s.Images.Reorder(ctx, id, orders)
}

func (s *Service) RemoveImage(ctx context.Context, imageID string, host domainlistings.HostID) error {
	image, err := s.Images.ByID(ctx, imageID)
	if err != nil {
		return err
	}
	if _, err := s.ownedListing(ctx, image.ListingID, host); err != nil {
		return err
	}
	if err := s.Images.Delete(ctx, imageID); err != nil {
		return err
	}
	s.removeBlob(ctx, image)
	return nil
}

func (s *Service) ownedListing(ctx context.Context, id domainlistings.ListingID, host domainlistings.HostID) (*domainlistings.Listing, error) {
	listing, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Host != host {
		return nil, ErrNotOwner
	}
	return listing, nil
}

// removeBlob deletes stored binary content, logging instead of failing:
// by the time it runs the row is already gone and the orphan is harmless.
func (s *Service) removeBlob(ctx context.Context, image domainlistings.Image) {
	if s.Blobs == nil {
		return
	}
	if err := s.Blobs.Remove(ctx, blobKey(image.ListingID, image.ID)); err != nil {
		s.log().Warn("image blob cleanup failed", "image_id", image.ID, "listing_id", image.ListingID, "error", err)
	}
}

func blobKey(listingID domainlistings.ListingID, imageID string) string {
	return fmt.Sprintf("listings/%s/%s", listingID, imageID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
