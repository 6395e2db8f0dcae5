//go:build !opencv

package media

import "fmt"

// OpenCVClip needs a build with the opencv tag.
func OpenCVClip(path string, opts OpenOptions) (Clip, error) {
	return nil, fmt.Errorf("%w: built without opencv support", ErrDecoderUnavailable)
}
