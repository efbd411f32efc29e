package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"estatescout/internal/model"
)

// stubBrowser records actions and can fail selected steps.
type stubBrowser struct {
	startErr      error
	failFillAt    int // 1-based candidate index, 0 = never
	failScreenAt  int
	navigations   []string
	filled        []string
	screenshots   []string
	closed        bool
	candidateSeen int
}

func (b *stubBrowser) Start(ctx context.Context) error { return b.startErr }

func (b *stubBrowser) Navigate(url string) error {
	b.navigations = append(b.navigations, url)
	b.candidateSeen++
	return nil
}

func (b *stubBrowser) Fill(selector, text string) bool {
	if b.failFillAt == b.candidateSeen {
		return false
	}
	b.filled = append(b.filled, text)
	return true
}

func (b *stubBrowser) Click(selector string) bool { return true }

func (b *stubBrowser) Screenshot(path string) bool {
	if b.failScreenAt == b.candidateSeen {
		return false
	}
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		return false
	}
	b.screenshots = append(b.screenshots, path)
	return true
}

func (b *stubBrowser) Close() error {
	b.closed = true
	return nil
}

// stubUploader returns a canned upload result.
type stubUploader struct {
	result model.UploadResult
	calls  int
}

func (u *stubUploader) Upload(ctx context.Context, localPath, folder, publicID string) model.UploadResult {
	u.calls++
	return u.result
}

func (u *stubUploader) Enabled() bool { return true }

func verifierProperties() []model.Property {
	return []model.Property{
		{ID: 1, Address: "100 Main St, Austin"},
		{ID: 2, Address: "237 Oak Ave, Austin"},
		{ID: 3, Address: "374 Park Blvd, Austin"},
	}
}

func TestVisualVerifier_BatchContinuesPastFailures(t *testing.T) {
	browser := &stubBrowser{failFillAt: 2}
	uploader := &stubUploader{result: model.UploadResult{Success: true, URL: "https://cdn.example.com/p.png", PublicID: "p"}}
	verifier := NewVisualVerifier(browser, uploader, "http://localhost:3000", t.TempDir(), 0)

	props := verifierProperties()
	screenshots := verifier.Verify(context.Background(), props)

	if len(screenshots) != len(props) {
		t.Fatalf("Expected index-aligned slice of %d, got %d", len(props), len(screenshots))
	}
	if screenshots[0] == "" || screenshots[2] == "" {
		t.Error("Expected screenshots for unaffected candidates")
	}
	if screenshots[1] != "" {
		t.Error("Expected empty slot for the failed candidate")
	}
	if !browser.closed {
		t.Error("Expected browser session closed after the batch")
	}
}

func TestVisualVerifier_UploadRecordedOnProperty(t *testing.T) {
	browser := &stubBrowser{}
	uploader := &stubUploader{result: model.UploadResult{Success: true, URL: "https://cdn.example.com/p.png", PublicID: "p1"}}
	verifier := NewVisualVerifier(browser, uploader, "http://localhost:3000", t.TempDir(), 0)

	props := verifierProperties()
	screenshots := verifier.Verify(context.Background(), props)

	for i := range props {
		if props[i].CloudinaryURL == "" {
			t.Errorf("Property %d missing upload URL", i+1)
		}
		// The local path must survive the upload so the dossier can move it.
		if screenshots[i] == "" {
			t.Errorf("Property %d missing local screenshot path", i+1)
		}
		if _, err := os.Stat(screenshots[i]); err != nil {
			t.Errorf("Screenshot file missing: %v", err)
		}
	}
	if uploader.calls != len(props) {
		t.Errorf("Expected %d uploads, got %d", len(props), uploader.calls)
	}
}

func TestVisualVerifier_UploadFailureKeepsLocalPath(t *testing.T) {
	browser := &stubBrowser{}
	uploader := &stubUploader{result: model.UploadResult{Success: false, Error: "network"}}
	verifier := NewVisualVerifier(browser, uploader, "http://localhost:3000", t.TempDir(), 0)

	props := verifierProperties()[:1]
	screenshots := verifier.Verify(context.Background(), props)

	if screenshots[0] == "" {
		t.Fatal("Expected local screenshot path despite upload failure")
	}
	if props[0].CloudinaryURL != "" {
		t.Error("Expected no upload URL after failed upload")
	}
}

func TestVisualVerifier_StartFailureIsNonFatal(t *testing.T) {
	browser := &stubBrowser{startErr: errors.New("no chrome")}
	verifier := NewVisualVerifier(browser, nil, "http://localhost:3000", t.TempDir(), 0)

	screenshots := verifier.Verify(context.Background(), verifierProperties())

	for i, s := range screenshots {
		if s != "" {
			t.Errorf("Expected empty slot %d when the browser never started", i)
		}
	}
}

func TestScreenshotName(t *testing.T) {
	name := screenshotName(0, "100 Main St, Austin")
	want := "property_1_100_Main_St_Austin.png"
	if name != want {
		t.Errorf("screenshotName = %q, want %q", name, want)
	}
	if filepath.Ext(name) != ".png" {
		t.Errorf("Expected .png extension, got %q", name)
	}
}
