package kyc

import "github.com/pkg/errors"

var errNoObjectStorage = errors.New("object storage is not configured")
