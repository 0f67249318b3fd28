package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "stayaway/internal/domain/listings"
)

type ListingRepository struct {
	col    *mongo.Collection
	images *mongo.Collection
	// cascade removes dependent rows when a listing is deleted.
	cascade []func(ctx context.Context, id domainlistings.ListingID) error
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{
		col:    db.Collection("listings"),
		images: db.Collection("listing_images"),
	}
}

func (r *ListingRepository) OnDelete(fn func(ctx context.Context, id domainlistings.ListingID) error) {
	r.cascade = append(r.cascade, fn)
}

type listingDocument struct {
	ID            string `bson:"_id"`
	Host          string `bson:"user_id"`
	Title         string `bson:"title"`
	Description   string `bson:"description"`
	Category      string `bson:"category"`
	LocationValue string `bson:"location_value"`
	NightlyPrice  int64  `bson:"price"`
	RoomCount     int    `bson:"room_count"`
	BathroomCount int    `bson:"bathroom_count"`
	GuestLimit    int    `bson:"guest_count"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

type imageDocument struct {
	ID        string `bson:"_id"`
	ListingID string `bson:"listing_id"`
	URL       string `bson:"url"`
	Order     int    `bson:"order"`
	CreatedAt int64  `bson:"created_at"`
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find listing: %w", err)
	}
	return doc.toListing(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("mongo: save listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	filter := bson.M{}
	if params.Host != "" {
		filter["user_id"] = string(params.Host)
	}
	if params.Category != "" {
		filter["category"] = params.Category
	}
	if params.Location != "" {
		filter["location_value"] = params.Location
	}
	if params.MinRooms > 0 {
		filter["room_count"] = bson.M{"$gte": params.MinRooms}
	}
	if params.MinBathrooms > 0 {
		filter["bathroom_count"] = bson.M{"$gte": params.MinBathrooms}
	}
	if params.MinGuests > 0 {
		filter["guest_count"] = bson.M{"$gte": params.MinGuests}
	}
	if params.MaxPrice > 0 {
		filter["price"] = bson.M{"$lte": params.MaxPrice}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: search listings: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*domainlistings.Listing
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode listing: %w", err)
		}
		result = append(result, doc.toListing())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterate listings: %w", err)
	}
	return result, nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return fmt.Errorf("mongo: delete listing: %w", err)
	}
	if result.DeletedCount == 0 {
		return domainlistings.ErrNotFound
	}
	if _, err := r.images.DeleteMany(ctx, bson.M{"listing_id": string(id)}); err != nil {
		return fmt.Errorf("mongo: cascade images: %w", err)
	}
	for _, fn := range r.cascade {
		if err := fn(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ImageRepository stores listing image rows in their own collection.
type ImageRepository struct {
	col *mongo.Collection
}

func NewImageRepository(db *mongo.Database) *ImageRepository {
	return &ImageRepository{col: db.Collection("listing_images")}
}

func (r *ImageRepository) ByListing(ctx context.Context, id domainlistings.ListingID) ([]domainlistings.Image, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"listing_id": string(id)}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find images: %w", err)
	}
	defer cursor.Close(ctx)

	var result []domainlistings.Image
	for cursor.Next(ctx) {
		var doc imageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode image: %w", err)
		}
		result = append(result, doc.toImage())
	}
	return result, cursor.Err()
}

func (r *ImageRepository) ByID(ctx context.Context, id string) (domainlistings.Image, error) {
	var doc imageDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainlistings.Image{}, domainlistings.ErrNotFound
		}
		return domainlistings.Image{}, fmt.Errorf("mongo: find image: %w", err)
	}
	return doc.toImage(), nil
}

func (r *ImageRepository) Save(ctx context.Context, image domainlistings.Image) error {
	doc := imageDocument{
		ID:        image.ID,
		ListingID: string(image.ListingID),
		URL:       image.URL,
		Order:     image.Order,
		CreatedAt: image.CreatedAt.UnixMilli(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("mongo: save image: %w", err)
	}
	return nil
}

func (r *ImageRepository) Reorder(ctx context.Context, listingID domainlistings.ListingID, orders map[string]int) error {
	for id, order := range orders {
		result, err := r.col.UpdateOne(ctx,
			bson.M{"_id": id, "listing_id": string(listingID)},
			bson.M{"$set": bson.M{"order": order}})
		if err != nil {
			return fmt.Errorf("mongo: reorder image: %w", err)
		}
		if result.MatchedCount == 0 {
			return domainlistings.ErrNotFound
		}
	}
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete image: %w", err)
	}
	if result.DeletedCount == 0 {
		return domainlistings.ErrNotFound
	}
	return nil
}

func newListingDocument(listing *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:            string(listing.ID),
		Host:          string(listing.Host),
		Title:         listing.Title,
		Description:   listing.Description,
		Category:      listing.Category,
		LocationValue: listing.LocationValue,
		NightlyPrice:  listing.NightlyPrice,
		RoomCount:     listing.RoomCount,
		BathroomCount: listing.BathroomCount,
		GuestLimit:    listing.GuestLimit,
		CreatedAt:     listing.CreatedAt.UnixMilli(),
		UpdatedAt:     listing.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toListing() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:            domainlistings.ListingID(d.ID),
		Host:          domainlistings.HostID(d.Host),
		Title:         d.Title,
		Description:   d.Description,
		Category:      d.Category,
		LocationValue: d.LocationValue,
		NightlyPrice:  d.NightlyPrice,
		RoomCount:     d.RoomCount,
		BathroomCount: d.BathroomCount,
		GuestLimit:    d.GuestLimit,
		CreatedAt:     time.UnixMilli(d.CreatedAt).UTC(),
		UpdatedAt:     time.UnixMilli(d.UpdatedAt).UTC(),
	}
}

func (d imageDocument) toImage() domainlistings.Image {
	return domainlistings.Image{
		ID:        d.ID,
		ListingID: domainlistings.ListingID(d.ListingID),
		URL:       d.URL,
		Order:     d.Order,
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
	}
}
