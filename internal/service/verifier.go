package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"estatescout/internal/model"
)

// VisualVerifier drives a browser to the map simulator for each candidate,
// captures a screenshot and uploads it to durable storage. One browser
// session serves the whole batch. A candidate's failure never aborts the
// batch: its slot in the returned path slice stays empty.
type VisualVerifier struct {
	browser      Browser
	uploader     Uploader
	frontendURL  string
	dataDir      string
	settlePause  time.Duration
	uploadFolder string
}

// NewVisualVerifier creates a visual verifier
func NewVisualVerifier(browser Browser, uploader Uploader, frontendURL, dataDir string, settleSeconds int) *VisualVerifier {
	return &VisualVerifier{
		browser:      browser,
		uploader:     uploader,
		frontendURL:  frontendURL,
		dataDir:      dataDir,
		settlePause:  time.Duration(settleSeconds) * time.Second,
		uploadFolder: "estate_scout/properties",
	}
}

// Verify captures one screenshot per candidate. The returned slice is
// index-aligned with properties and holds local screenshot paths; an empty
// string marks a failed candidate. Cloudinary fields are recorded on the
// property itself so the local file stays available for the dossier move.
func (v *VisualVerifier) Verify(ctx context.Context, properties []model.Property) []string {
	screenshots := make([]string, len(properties))
	if len(properties) == 0 {
		return screenshots
	}

	log.Printf("📸 Starting browser automation for %d properties", len(properties))
	if err := v.browser.Start(ctx); err != nil {
		log.Printf("❌ Browser start failed: %v", err)
		return screenshots
	}
	defer func() {
		if err := v.browser.Close(); err != nil {
			log.Printf("⚠️ Browser close failed: %v", err)
		}
	}()

	screenshotDir := filepath.Join(v.dataDir, "screenshots")
	if err := os.MkdirAll(screenshotDir, 0o755); err != nil {
		log.Printf("❌ Failed to create screenshot directory: %v", err)
		return screenshots
	}

	for idx := range properties {
		prop := &properties[idx]
		log.Printf("🏠 Verifying property %d/%d: %s", idx+1, len(properties), prop.Address)

		if err := v.browser.Navigate(v.frontendURL + "/map-simulator"); err != nil {
			log.Printf("   ❌ Navigation failed: %v", err)
			continue
		}
		if !v.browser.Fill("#address-input", prop.Address) {
			log.Printf("   ❌ Failed to find address input field")
			continue
		}
		if !v.browser.Click("#search-button") {
			log.Printf("   ❌ Failed to find search button")
			continue
		}

		// The simulated map has no queryable load signal; give it a moment.
		select {
		case <-ctx.Done():
			log.Printf("   ❌ Cancelled: %v", ctx.Err())
			return screenshots
		case <-time.After(v.settlePause):
		}

		path := filepath.Join(screenshotDir, screenshotName(idx, prop.Address))
		if !v.browser.Screenshot(path) {
			log.Printf("   ❌ Failed to capture screenshot")
			continue
		}
		screenshots[idx] = path
		log.Printf("   ✅ Screenshot saved: %s", path)

		if v.uploader != nil && v.uploader.Enabled() {
			publicID := fmt.Sprintf("property_%d_%d", idx+1, prop.ID)
			result := v.uploader.Upload(ctx, path, v.uploadFolder, publicID)
			if result.Success {
				prop.CloudinaryURL = result.URL
				prop.CloudinaryPublicID = result.PublicID
				log.Printf("   ☁️ Uploaded: %s", result.URL)
			} else {
				log.Printf("   ⚠️ Upload failed (%s), keeping local path", result.Error)
			}
		}
	}

	captured := 0
	for _, s := range screenshots {
		if s != "" {
			captured++
		}
	}
	log.Printf("📸 Verification complete: %d/%d screenshots captured", captured, len(properties))
	return screenshots
}

// screenshotName builds a filesystem-safe screenshot filename from the
// candidate index and address.
func screenshotName(idx int, address string) string {
	safe := strings.ReplaceAll(address, " ", "_")
	safe = strings.ReplaceAll(safe, ",", "")
	if len(safe) > 30 {
		safe = safe[:30]
	}
	return fmt.Sprintf("property_%d_%s.png", idx+1, safe)
}
