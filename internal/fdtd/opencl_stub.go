//go:build !opencl

package fdtd

import "errors"

// NewOpenCLBackend reports that the binary was built without OpenCL.
func NewOpenCLBackend(Setup) (Backend, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}
