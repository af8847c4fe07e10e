package domain

import "errors"

// Sentinel errors used across layers.
var (
	// ErrIpcUnavailable means the vision shared-memory segment never
	// appeared within the configured timeout. Fatal to the coordinator.
	ErrIpcUnavailable = errors.New("vision ipc channel unavailable")

	// ErrPathEscape means a package-relative media path resolved outside
	// its package directory. The package is skipped, never fatal.
	ErrPathEscape = errors.New("media path escapes package directory")

	// ErrMetadataInvalid means a package's metadata document could not be
	// parsed into a usable ImageMetadata. The package is skipped.
	ErrMetadataInvalid = errors.New("invalid image package metadata")

	// ErrAudioLoadFailed means a stream failed to load from disk. The
	// triggering command is dropped.
	ErrAudioLoadFailed = errors.New("failed to load audio stream")

	// ErrNoImages means the gallery scan found no loadable image
	// package. Fatal to the coordinator.
	ErrNoImages = errors.New("no image packages available")

	// ErrUnknownCurve means a referenced fade curve name has no
	// registered implementation.
	ErrUnknownCurve = errors.New("unknown fade curve")

	// ErrStreamNotFound means a mixer operation referenced a stream name
	// that is not currently registered.
	ErrStreamNotFound = errors.New("stream not found")
)
