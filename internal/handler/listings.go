package handler

import (
	"fmt"
	"log"
	"net/http"

	"estatescout/internal/model"
	"estatescout/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListingsHandler serves persisted listings and learned preferences
type ListingsHandler struct {
	store       repository.Store
	frontendURL string
}

// NewListingsHandler creates a new listings handler
func NewListingsHandler(store repository.Store, frontendURL string) *ListingsHandler {
	return &ListingsHandler{store: store, frontendURL: frontendURL}
}

// Listings handles GET /api/listings
func (h *ListingsHandler) Listings(c *gin.Context) {
	userID := c.DefaultQuery("user_id", "default")

	listings, err := h.store.ListListings(c.Request.Context(), userID)
	if err != nil {
		log.Printf("❌ Failed to load listings: %v", err)
		c.JSON(http.StatusOK, gin.H{"listings": []model.Listing{}})
		return
	}

	// Older records may predate durable image URLs; fall back to the
	// frontend-served screenshot path.
	for i := range listings {
		prop := &listings[i].Property
		if prop.ImageURL == "" && prop.ScreenshotPath != "" {
			prop.ImageURL = fmt.Sprintf("%s/%s", h.frontendURL, prop.ScreenshotPath)
		}
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// Preferences handles GET /api/preferences
func (h *ListingsHandler) Preferences(c *gin.Context) {
	userID := c.DefaultQuery("user_id", "default")

	prefs, err := h.store.GetUserPreferences(c.Request.Context(), userID)
	if err != nil {
		log.Printf("❌ Failed to load preferences: %v", err)
		c.JSON(http.StatusOK, &model.UserPreferences{UserID: userID})
		return
	}

	c.JSON(http.StatusOK, prefs)
}
