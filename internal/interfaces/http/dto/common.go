package dto

import (
	"errors"
)

var (
	errInvalidUserID = errors.New("user_id must be a positive integer")
	errEmptyMessage  = errors.New("message must carry text or a photo")
)
