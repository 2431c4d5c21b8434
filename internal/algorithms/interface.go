// Binarization method registry
package algorithms

import (
	"slices"

	"emperror.dev/errors"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

// Binarizer reduces an image to a single-channel {0,255} result.
type Binarizer interface {
	Binarize(input gocv.Mat, params core.BinarizationParams) (gocv.Mat, error)
	GetName() string
	GetDescription() string
}

var binarizers = make(map[core.Method]Binarizer)

func Register(method core.Method, binarizer Binarizer) {
	binarizers[method] = binarizer
}

func Get(method core.Method) (Binarizer, bool) {
	binarizer, exists := binarizers[method]
	return binarizer, exists
}

// Methods lists the registered methods in declaration order.
func Methods() []core.Method {
	methods := make([]core.Method, 0, len(binarizers))
	for method := range binarizers {
		methods = append(methods, method)
	}
	slices.Sort(methods)
	return methods
}

// Binarize clamps params and dispatches to the binarizer registered for
// params.Method.
func Binarize(input gocv.Mat, params core.BinarizationParams) (gocv.Mat, error) {
	if err := core.ValidateImage(input); err != nil {
		return gocv.NewMat(), err
	}

	binarizer, exists := binarizers[params.Method]
	if !exists {
		return gocv.NewMat(), errors.WithMessagef(core.ErrInvalidParams, "binarization method not found: %s", params.Method)
	}

	return binarizer.Binarize(input, params.Clamp())
}

func init() {
	Register(core.MethodThreshold, NewThresholdBinarizer())
	Register(core.MethodEdgeDetection, NewEdgeBinarizer())
}
