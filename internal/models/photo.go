package models

// Photo is a reference to an image file attached to an order.
// Only the file path is stored; the image content lives on disk.
type Photo struct {
	// ID is the unique identifier for the photo record (UUID format).
	ID string

	// OrderID links the photo to its parent order.
	OrderID string

	// FilePath points at the image file in device-local storage.
	FilePath string
}
