// Package submission handles the base submission form: it parses the
// multipart request, validates the fields, stores the image, appends the
// record to its category and writes the JSON response.
//
// Every field is validated before the image is written, so a rejected
// submission never leaves a file behind. Failures map to three response
// shapes:
//
//	400 {"message": "Link, TH, and Image are required"}         validation
//	400 {"message": "Upload failed: File too large"}            upload rules
//	500 {"message": "Internal server error", "error": "..."}    everything else
//
// A 500 after the image was stored removes the image before responding.
package submission
