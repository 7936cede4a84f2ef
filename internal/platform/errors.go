package platform

import "errors"

var (
	// ErrMissingType — submission без типа job.
	ErrMissingType = errors.New("job type is required")

	// ErrMissingLaunch — submission без ссылки на launch.
	ErrMissingLaunch = errors.New("launch id is required")

	// ErrMalformedRef — параметр выглядит как artifact-ссылка,
	// но не разбирается.
	ErrMalformedRef = errors.New("malformed artifact ref")
)
