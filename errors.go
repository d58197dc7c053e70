package texatlas

import "errors"

// Texture errors.
var (
	// ErrEmptyImage is returned when decoding zero-length image data.
	ErrEmptyImage = errors.New("texatlas: empty image data")

	// ErrInvalidCubeLayout is returned when a cubemap image is not a
	// 4x3 horizontal cross of equal square cells.
	ErrInvalidCubeLayout = errors.New("texatlas: image is not a 4x3 cubemap cross")

	// ErrNoDriver is returned when a GPU operation is attempted through a
	// RenderState that was created without a driver.
	ErrNoDriver = errors.New("texatlas: render state has no driver")
)
