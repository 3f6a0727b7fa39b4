// Package aggregate presents every bridge a user owns as one device
// collection.
//
// Listing fans out to all of the user's bridges concurrently and
// concatenates the results in bridge registration order. A bridge that
// fails contributes nothing and does not fail the listing. Single-device
// reads and writes route to exactly one bridge and surface its errors.
//
// After a successful write the device is re-read and a state-change event
// is published; if the re-read fails no event is sent, and the write
// still counts as successful.
package aggregate
