package crochet

import (
	"github.com/pkg/errors"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
)
