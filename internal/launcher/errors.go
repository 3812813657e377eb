package launcher

import "errors"

var (
	// ErrCommandNotFound means none of the resolution strategies produced
	// a way to invoke the notebook server.
	ErrCommandNotFound = errors.New("jupyter-notebook command not found")

	// ErrProcessStart means the child failed to start or exited instantly.
	ErrProcessStart = errors.New("notebook server failed to start")

	// ErrURLTimeout means no URL was seen within the deadline.
	ErrURLTimeout = errors.New("timed out waiting for the notebook server URL")

	// ErrNoURL means the child exited without ever printing a URL.
	ErrNoURL = errors.New("notebook server ended without printing a URL")
)
