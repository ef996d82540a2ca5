package models

import "time"

// PageContent is the document text fetched for one quiz URL.
// It lives for a single chain iteration and is never cached.
type PageContent struct {
	URL  string
	HTML string

	// Narrowed is true when HTML holds only the result container's inner content.
	Narrowed bool

	StatusCode int
	LoadTime   time.Duration
}

// PageDigest is the readable summary of a page handed to the model
// alongside the raw markup.
type PageDigest struct {
	Title         string
	TextContent   string
	OutboundLinks []string
}
