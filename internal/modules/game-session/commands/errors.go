package commands

import (
	"net/http"

	"github.com/eskrenkovic/turn-tracker/internal/modules/core"
	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
)

var errorStatuses = []core.ErrorStatus{
	{Err: domain.ErrSessionNotFound, StatusCode: http.StatusNotFound},
	{Err: domain.ErrStatusNotFound, StatusCode: http.StatusNotFound},
	{Err: domain.ErrNotAMember, StatusCode: http.StatusForbidden},
	{Err: domain.ErrNotYourTurn, StatusCode: http.StatusBadRequest},
	{Err: domain.ErrCodeInUse, StatusCode: http.StatusBadRequest},
	{Err: domain.ErrInvalidStatus, StatusCode: http.StatusBadRequest},
}

func translate(err error) error {
	return core.TranslateError(err, errorStatuses)
}
