package repository

import "errors"

var ErrDuplicateID = errors.New("задача с таким идентификатором уже существует")
