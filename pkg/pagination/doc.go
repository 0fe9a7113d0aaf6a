// Package pagination provides lazy page-by-page walking of paginated
// Canvas REST collections.
//
// Canvas endpoints return one page of items per request and advertise the
// next page through an RFC 5988 Link header with rel="next". Some
// installations omit the header entirely, in which case the page number
// parameter has to be incremented manually until a page comes back empty.
// The walker handles both conventions.
//
// Example usage:
//
//	pager := pagination.New(client, "/api/v1/courses/42/enrollments", query,
//		decodeEnrollments, pagination.DefaultConfig())
//	for pager.Next(ctx) {
//		for _, e := range pager.Items() {
//			// process enrollment
//		}
//	}
//	if err := pager.Err(); err != nil {
//		return err
//	}
//
// The walker:
//   - Seeds the first request with page=1 and per_page (default 100)
//   - Follows Link rel="next" URLs verbatim when present
//   - Falls back to incrementing the page counter when no Link header is sent
//   - Stops on an empty page, on Link exhaustion, or on the first error
//   - Is not restartable: once exhausted, Next always returns false
package pagination
