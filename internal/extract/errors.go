package extract

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

// ErrUnsupportedFormat matches every UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// UnsupportedFormatError names the extension that was rejected.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q (allowed: %s)", e.Ext, strings.Join(constants.SortedExtensions(), ", "))
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

func (e *UnsupportedFormatError) GRPCCode() codes.Code {
	return codes.InvalidArgument
}
