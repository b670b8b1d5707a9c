package storage

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrUsernameExists  = errors.New("username already exists")
	ErrProductNotFound = errors.New("product not found")
	ErrSKUExists       = errors.New("sku already exists")
	ErrCacheMiss       = errors.New("cache miss")
)
