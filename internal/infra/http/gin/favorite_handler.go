package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	favoritesapp "renta/internal/app/handlers/favorites"
	"renta/internal/app/queries"
	domainspaces "renta/internal/domain/spaces"
)

type FavoriteHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h FavoriteHandler) Toggle(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := favoritesapp.ToggleFavoriteCommand{UserID: user.ID, SpaceID: c.Param("id")}
	result, err := commands.Dispatch[favoritesapp.ToggleFavoriteCommand, dto.FavoriteToggleResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if errors.Is(err, domainspaces.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "space not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h FavoriteHandler) List(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	result, err := queries.Ask[favoritesapp.ListFavoritesQuery, dto.FavoriteCollection](c.Request.Context(), h.Queries, favoritesapp.ListFavoritesQuery{UserID: user.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ FavoriteHTTP = FavoriteHandler{}
