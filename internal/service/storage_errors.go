package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/studentms/internal/repository"
	"github.com/noah-isme/studentms/pkg/database"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

// storageError maps a repository failure onto the typed error taxonomy.
// entity names the record in NotFound/Conflict messages; action describes the failed step.
func storageError(err error, entity, action string) *appErrors.Error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case database.IsUniqueViolation(err):
		return appErrors.WrapAs(appErrors.ErrConflict, err, entity+" already exists")
	case database.IsForeignKeyViolation(err):
		return appErrors.WrapAs(appErrors.ErrValidation, err, "referenced record does not exist")
	case errors.Is(err, repository.ErrMalformedStudentCode):
		return appErrors.WrapAs(appErrors.ErrFormat, err, "stored student code is malformed")
	case database.IsConnectionFailure(err):
		return appErrors.WrapAs(appErrors.ErrConnection, err, "")
	default:
		return appErrors.WrapAs(appErrors.ErrInternal, err, "failed to "+action)
	}
}

func validationError(err error, message string) *appErrors.Error {
	return appErrors.WrapAs(appErrors.ErrValidation, err, message)
}
