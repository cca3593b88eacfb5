// Package upload receives and stores submitted images.
//
// A Receiver takes the image part of a multipart submission, checks it
// against Config (size limit, allowed extensions, declared MIME type and,
// optionally, the sniffed content type) and persists it in a Store under a
// generated unique name:
//
//	<unix millis>-<random integer>.<original extension>
//
// Two stores are provided:
//   - DiskStore writes into a local directory (created on demand). The
//     directory is exposed read-only over HTTP by the server package.
//   - S3Store writes into an S3-compatible bucket.
//
// # Usage
//
//	store, err := upload.NewDiskStore("image", "/image", 5<<20)
//	if err != nil {
//	    return err
//	}
//	recv := upload.NewReceiver(store, upload.DefaultConfig())
//
//	file, err := recv.Receive(ctx, header)
//	if upload.IsUploadError(err) {
//	    // client error: bad type or too large
//	}
//
// # Security
//
// Client-provided part headers are checked, but when Config.SniffContent is
// set the first 512 bytes are also run through http.DetectContentType so a
// renamed text file is rejected even with an image extension and header.
package upload
