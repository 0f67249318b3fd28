package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainlistings "stayaway/internal/domain/listings"
)

// ListingRepository is an in-memory implementation for dev and tests.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
	// cascade removes dependent rows when a listing is deleted.
	cascade []func(ctx context.Context, id domainlistings.ListingID) error
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// OnDelete registers a cascade step run after the listing row is removed.
func (r *ListingRepository) OnDelete(fn func(ctx context.Context, id domainlistings.ListingID) error) {
	r.cascade = append(r.cascade, fn)
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	copied := *listing
	return &copied, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *listing
	r.items[listing.ID] = &copied
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if params.Host != "" && listing.Host != params.Host {
			continue
		}
		if params.Category != "" && listing.Category != params.Category {
			continue
		}
		if params.Location != "" && listing.LocationValue != params.Location {
			continue
		}
		if params.MinRooms > 0 && listing.RoomCount < params.MinRooms {
			continue
		}
		if params.MinBathrooms > 0 && listing.BathroomCount < params.MinBathrooms {
			continue
		}
		if params.MinGuests > 0 && listing.GuestLimit < params.MinGuests {
			continue
		}
		if params.MaxPrice > 0 && listing.NightlyPrice > params.MaxPrice {
			continue
		}
		copied := *listing
		matches = append(matches, &copied)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	r.mu.Lock()
	if _, ok := r.items[id]; !ok {
		r.mu.Unlock()
		return domainlistings.ErrNotFound
	}
	delete(r.items, id)
	cascade := r.cascade
	r.mu.Unlock()

	for _, fn := range cascade {
		if err := fn(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ImageRepository keeps listing images ordered by their display position.
type ImageRepository struct {
	mu    sync.RWMutex
	items map[string]domainlistings.Image
}

func NewImageRepository() *ImageRepository {
	return &ImageRepository{items: make(map[string]domainlistings.Image)}
}

func (r *ImageRepository) ByListing(ctx context.Context, id domainlistings.ListingID) ([]domainlistings.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domainlistings.Image
	for _, img := range r.items {
		if img.ListingID == id {
			result = append(result, img)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	return result, nil
}

func (r *ImageRepository) ByID(ctx context.Context, id string) (domainlistings.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.items[id]
	if !ok {
		return domainlistings.Image{}, domainlistings.ErrNotFound
	}
	return img, nil
}

func (r *ImageRepository) Save(ctx context.Context, image domainlistings.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[image.ID] = image
	return nil
}

func (r *ImageRepository) Reorder(ctx context.Context, listingID domainlistings.ListingID, orders map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, order := range orders {
		img, ok := r.items[id]
		if !ok || img.ListingID != listingID {
			return domainlistings.ErrNotFound
		}
		img.Order = order
		r.items[id] = img
	}
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainlistings.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// DeleteByListing supports the listing-deletion cascade.
func (r *ImageRepository) DeleteByListing(ctx context.Context, listingID domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, img := range r.items {
		if img.ListingID == listingID {
			delete(r.items, id)
		}
	}
	return nil
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
