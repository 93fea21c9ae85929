// Package api exposes the HTTP surface of the serve command: health and
// metrics endpoints plus a small job API to enqueue variant generation and
// inspect its outcome.
package api
