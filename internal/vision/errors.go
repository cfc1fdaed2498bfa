package vision

import "errors"

var (
	// ErrDeviceUnavailable indicates the camera is missing, busy or access was denied.
	ErrDeviceUnavailable = errors.New("vision: device unavailable")

	// ErrModelLoad indicates the classifier could not be initialised.
	ErrModelLoad = errors.New("vision: model load failed")

	// ErrInference indicates a single classification call failed.
	// Classification never partially succeeds.
	ErrInference = errors.New("vision: inference failed")
)
