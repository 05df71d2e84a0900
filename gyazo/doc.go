// Package gyazo provides a client for the Gyazo image hosting API.
//
// The client lists, fetches, uploads and deletes the images of the account
// that owns the access token, and retrieves oEmbed documents for public
// image pages. Each method issues exactly one HTTP request.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := gyazo.NewClient(logger,
//		gyazo.WithAccessToken(os.Getenv("GYAZO_ACCESS_TOKEN")),
//		gyazo.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	images, err := client.ListImages(ctx, 1, 20)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if next, ok := images.HasNextPage(); ok && next {
//		// fetch the following page
//	}
//
// # Records
//
// Image fields are all optional. Empty strings and empty maps in a response
// are treated as absent. Two partial views of one image are combined with
// Merge (left wins), and collections with Concat or Union (deduplicated by
// thumbnail URL, newest first).
//
// # Error Handling
//
//   - *TransportError: the request never produced a response (matches ErrTransport)
//   - *DecodeError: the body was not the expected JSON
//   - *APIError: the server answered with status >= 400
//
//	var apiErr *gyazo.APIError
//	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
//		// image is gone
//	}
package gyazo
