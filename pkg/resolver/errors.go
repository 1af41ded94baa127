package resolver

import "github.com/matzehuels/mvnpack/pkg/errors"

var errNoCache = errors.New(errors.ErrCodeInternal, "no resolution cache configured")
