// Package amcrest is the device-protocol collaborator: a minimal client
// for the Amcrest camera CGI API, scoped to exactly what the bridge
// consumes.
//
// This package manages:
//   - Digest-authenticated HTTP access to the camera
//   - Static descriptor queries (device type, serial, firmware, name)
//   - On-demand storage capacity queries
//   - The blocking, internally-retrying event stream
//
// # Error taxonomy
//
// Transient failures (ErrUnavailable) are recoverable by the caller;
// ErrStreamExhausted is terminal and fatal to the bridge. See the errors
// file for the full set.
//
// # Usage
//
//	cam := amcrest.New(amcrest.Config{Host: host, Port: 80, Username: "admin", Password: pw})
//	serial, err := cam.SerialNumber(ctx)
//
//	stream := cam.StreamEvents(amcrest.StreamOptions{})
//	defer stream.Close()
//	for {
//	    ev, err := stream.Next(ctx)
//	    ...
//	}
package amcrest
