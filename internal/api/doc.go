// Package api provides an HTTP client for the learning platform REST API.
//
// # Overview
//
// Lectern consumes three endpoints:
//
//   - GET  /course-progress/{courseId}: lecture list plus the viewer's progress set
//   - POST /course-progress/{courseId}/lecture/{lectureId}: set one completion flag
//   - GET  /course-detail/{courseId}: course description plus the purchase flag
//
// Paths are joined onto the configured base URL, so a prefix such as
// "/api/v1" is preserved. Path segments are escaped.
//
// # Client Usage
//
//	client, err := api.NewClient("http://127.0.0.1:8080/api/v1", token, 0)
//	if err != nil {
//		return err
//	}
//	progress, err := client.FetchCourseProgress(ctx, courseID)
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: lectern/0.1
//   - Carry a fresh X-Request-ID so server logs can be correlated
//   - Send Authorization: Bearer <token> when a session token is present
//
// # Error Handling
//
//   - Network errors: "execute request: ..."
//   - HTTP errors: *StatusError, e.g. "api /course-detail/c1 returned status 500".
//     401 and 403 also match ErrUnauthorized via errors.Is.
//   - Deserialization errors: "decode response: ..."
//   - Payload validation: "invalid payload: data.progress[0].lectureId: ..."
//
// Progress payloads are validated because every progress record must be keyed
// by a lecture id; a record without one cannot be placed in the store.
//
// # Testing Considerations
//
// The ProgressAPI and DetailAPI interfaces are what the progress and access
// packages depend on, so tests substitute small fakes instead of a server.
package api
