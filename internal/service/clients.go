package service

import (
	"context"

	"estatescout/internal/model"
)

// Generator is the opaque text-generation capability. It is fallible and
// non-deterministic; callers must be prepared to fall back to deterministic
// logic when a call fails or the capability is disabled.
type Generator interface {
	// Generate produces text for the given system instructions and user text.
	Generate(ctx context.Context, system, user string) (string, error)

	// Enabled reports whether the capability is configured and ready.
	Enabled() bool
}

// SearchClient is the web search capability. It fails loudly when
// misconfigured — search is a required capability, not best-effort.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.WebResult, error)
}

// Browser is the browser automation capability. One started session drives
// one candidate at a time; action methods report success rather than
// returning errors so a failed step degrades the candidate, not the batch.
type Browser interface {
	Start(ctx context.Context) error
	Navigate(url string) error
	Fill(selector, text string) bool
	Click(selector string) bool
	Screenshot(path string) bool
	Close() error
}

// Uploader is the durable object storage capability.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder, publicID string) model.UploadResult
	Enabled() bool
}
