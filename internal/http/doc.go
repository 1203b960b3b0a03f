// Package http provides an HTTP client configured for the card catalog
// and image host.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Per-request timeouts
//   - Typed errors for non-2xx responses
//
// # Basic Usage
//
//	client := http.NewClient(http.WithTimeout(10 * time.Second))
//
//	body, err := client.Get(ctx, catalogURL)
//	var se *http.StatusError
//	if errors.As(err, &se) {
//	    fmt.Println("server answered", se.StatusCode)
//	}
package http
