package ginserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	catalogapp "renta/internal/app/handlers/catalog"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
	"renta/internal/infra/storage/s3"
)

// CatalogHandler serves the public catalog and owner space management.
type CatalogHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Uploader s3.Uploader
}

type spacePayloadRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	AreaSqM     float64 `json:"area_sq_m"`
	Capacity    int     `json:"capacity"`
	Address     struct {
		Line1   string `json:"line1"`
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"address"`
}

func (r spacePayloadRequest) toPayload() catalogapp.SpacePayload {
	return catalogapp.SpacePayload{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		AreaSqM:     r.AreaSqM,
		Capacity:    r.Capacity,
		Address: domainspaces.Address{
			Line1:   r.Address.Line1,
			City:    r.Address.City,
			Region:  r.Address.Region,
			Country: r.Address.Country,
		},
	}
}

func (h CatalogHandler) Search(c *gin.Context) {
	query := catalogapp.SearchCatalogQuery{
		City:         c.Query("city"),
		Category:     c.Query("category"),
		PriceMin:     parseInt64(c.Query("price_min")),
		PriceMax:     parseInt64(c.Query("price_max")),
		MinArea:      parseFloat(c.Query("min_area")),
		MinCapacity:  parseInt(c.Query("min_capacity")),
		FeaturedOnly: c.Query("featured") == "true",
		Sort:         c.Query("sort"),
		Limit:        parseIntWithDefault(c.Query("limit"), 24),
		Offset:       parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[catalogapp.SearchCatalogQuery, dto.SpaceCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) Get(c *gin.Context) {
	idOrSlug := c.Param("id")
	if idOrSlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "space id is required"})
		return
	}
	result, err := queries.Ask[catalogapp.GetSpaceQuery, dto.SpaceDetail](c.Request.Context(), h.Queries, catalogapp.GetSpaceQuery{IDOrSlug: idOrSlug})
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) ListOwn(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	query := catalogapp.OwnerSpacesQuery{
		OwnerID: user.ID,
		Limit:   parseIntWithDefault(c.Query("limit"), 24),
		Offset:  parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[catalogapp.OwnerSpacesQuery, dto.SpaceCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req spacePayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := catalogapp.CreateSpaceCommand{OwnerID: user.ID, Payload: req.toPayload()}
	result, err := commands.Dispatch[catalogapp.CreateSpaceCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h CatalogHandler) Update(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req spacePayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := catalogapp.UpdateSpaceCommand{
		ActorID: user.ID,
		Staff:   user.Staff(),
		SpaceID: c.Param("id"),
		Payload: req.toPayload(),
	}
	result, err := commands.Dispatch[catalogapp.UpdateSpaceCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) Publish(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := catalogapp.PublishSpaceCommand{ActorID: user.ID, Staff: user.Staff(), SpaceID: c.Param("id")}
	result, err := commands.Dispatch[catalogapp.PublishSpaceCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) Suspend(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	cmd := catalogapp.SuspendSpaceCommand{ActorID: user.ID, SpaceID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[catalogapp.SuspendSpaceCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadImage receives a multipart file, ships it to object storage and
// attaches the resulting URL to the space.
func (h CatalogHandler) UploadImage(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage unavailable"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	defer file.Close()

	spaceID := c.Param("id")
	key := s3.SpaceImageKey(spaceID, header.Filename)
	url, err := h.Uploader.Upload(c.Request.Context(), key, file, header.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	cmd := catalogapp.AddSpaceImageCommand{
		ActorID: user.ID,
		Staff:   user.Staff(),
		SpaceID: spaceID,
		URL:     url,
		Caption: c.PostForm("caption"),
		Primary: c.PostForm("primary") == "true",
	}
	result, err := commands.Dispatch[catalogapp.AddSpaceImageCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h CatalogHandler) SetPrimaryImage(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := catalogapp.SetPrimaryImageCommand{
		ActorID: user.ID,
		Staff:   user.Staff(),
		SpaceID: c.Param("id"),
		ImageID: c.Param("imageID"),
	}
	result, err := commands.Dispatch[catalogapp.SetPrimaryImageCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) RemoveImage(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := catalogapp.RemoveSpaceImageCommand{
		ActorID: user.ID,
		Staff:   user.Staff(),
		SpaceID: c.Param("id"),
		ImageID: c.Param("imageID"),
	}
	result, err := commands.Dispatch[catalogapp.RemoveSpaceImageCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type setPriceRequest struct {
	PeriodCode string `json:"period"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

func (h CatalogHandler) SetPrice(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := catalogapp.SetSpacePriceCommand{
		ActorID:    user.ID,
		Staff:      user.Staff(),
		SpaceID:    c.Param("id"),
		PeriodCode: req.PeriodCode,
		Amount:     req.Amount,
		Currency:   req.Currency,
	}
	result, err := commands.Dispatch[catalogapp.SetSpacePriceCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) DeactivatePrice(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := catalogapp.DeactivateSpacePriceCommand{
		ActorID:    user.ID,
		Staff:      user.Staff(),
		SpaceID:    c.Param("id"),
		PeriodCode: c.Param("period"),
	}
	result, err := commands.Dispatch[catalogapp.DeactivateSpacePriceCommand, *dto.SpaceDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondSpaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondSpaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainspaces.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "space not found"})
	case errors.Is(err, catalogapp.ErrNotSpaceOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the space owner"})
	case errors.Is(err, uow.ErrUnitOfWorkMissing):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func parseFloat(raw string) float64 {
	value, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if value < 0 {
		return 0
	}
	return value
}

var _ CatalogHTTP = CatalogHandler{}
