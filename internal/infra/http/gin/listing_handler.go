package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	applistings "stayaway/internal/app/listings"
	"stayaway/internal/domain/listings"
)

type ListingHandler struct {
	Service *applistings.Service
	Logger  *slog.Logger
}

type listingRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	LocationValue string `json:"location_value"`
	NightlyPrice  int64  `json:"nightly_price"`
	RoomCount     int    `json:"room_count"`
	BathroomCount int    `json:"bathroom_count"`
	GuestLimit    int    `json:"guest_limit"`
}

func (r listingRequest) toService() applistings.ListingRequest {
	return applistings.ListingRequest{
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		LocationValue: r.LocationValue,
		NightlyPrice:  r.NightlyPrice,
		RoomCount:     r.RoomCount,
		BathroomCount: r.BathroomCount,
		GuestLimit:    r.GuestLimit,
	}
}

func (h ListingHandler) Catalog(c *gin.Context) {
	params := listings.SearchParams{
		Host:     listings.HostID(c.Query("host")),
		Category: c.Query("category"),
		Location: c.Query("location"),
	}
	var err error
	if params.MinRooms, err = intQuery(c, "min_rooms"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.MinBathrooms, err = intQuery(c, "min_bathrooms"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.MinGuests, err = intQuery(c, "min_guests"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	maxPrice, err := intQuery(c, "max_price")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params.MaxPrice = int64(maxPrice)

	found, err := h.Service.Search(c.Request.Context(), params)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": toListingResponses(found)})
}

func (h ListingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listing, err := h.Service.Create(c.Request.Context(), listings.HostID(user.ID), req.toService())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, toListingResponse(listing))
}

func (h ListingHandler) Get(c *gin.Context) {
	listing, images, err := h.Service.Get(c.Request.Context(), listings.ListingID(c.Param("id")))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listing": toListingResponse(listing),
		"images":  toImageResponses(images),
	})
}

func (h ListingHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listing, err := h.Service.Update(c.Request.Context(), listings.ListingID(c.Param("id")), listings.HostID(user.ID), req.toService())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h ListingHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), listings.ListingID(c.Param("id")), listings.HostID(user.ID)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ListingHandler) UploadImage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'image' is required"})
		return
	}
	order, err := intForm(c, "order")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer file.Close()

	image, err := h.Service.AttachImage(
		c.Request.Context(),
		listings.ListingID(c.Param("id")),
		listings.HostID(user.ID),
		file,
		fileHeader.Header.Get("Content-Type"),
		order,
	)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, imageResponse{
		ID:        image.ID,
		ListingID: string(image.ListingID),
		URL:       image.URL,
		Order:     image.Order,
	})
}

type reorderImagesRequest struct {
	Orders map[string]int `json:"orders"`
}

func (h ListingHandler) ReorderImages(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req reorderImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Orders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orders must not be empty"})
		return
	}
	err := h.Service.ReorderImages(c.Request.Context(), listings.ListingID(c.Param("id")), listings.HostID(user.ID), req.Orders)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ListingHandler) DeleteImage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Service.RemoveImage(c.Request.Context(), c.Param("id"), listings.HostID(user.ID)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ListingHandler) HostDashboard(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	bundles, err := h.Service.HostListings(c.Request.Context(), listings.HostID(user.ID))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": toHostListingResponses(bundles)})
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, badIntParam(name)
	}
	return value, nil
}

func intForm(c *gin.Context, name string) (int, error) {
	raw := c.PostForm(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, badIntParam(name)
	}
	return value, nil
}

type badIntParam string

func (p badIntParam) Error() string {
	return "parameter '" + string(p) + "' must be a non-negative integer"
}

var _ ListingHTTP = ListingHandler{}
