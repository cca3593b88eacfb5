// Package errors provides coded, structured errors for thbase.
//
// Every error the service reports to a client or to the terminal carries a
// registered code that maps to:
//   - A category (validation, upload, storage, config, cli)
//   - A short, client-facing message
//   - A longer detail for operators
//   - The HTTP status the submission endpoint answers with
//
// # Error Codes
//
//   - E1xx: configuration and CLI errors
//   - E2xx: validation and upload errors (client-correctable, 400)
//   - E3xx: storage errors
//
// # Usage
//
//	err := errors.New("E201").WithDetail("missing: link")
//	status := errors.StatusOf(err) // 400
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201: Link, TH, and Image are required
//	//
//	//   missing: link
package errors
