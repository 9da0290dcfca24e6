package pgxcasbin

import "errors"

var (
	ErrEmptyPtype        = errors.New("pgxcasbin: ptype is empty")
	ErrRuleTooLong       = errors.New("pgxcasbin: rule has more than six values")
	ErrInvalidFilter     = errors.New("pgxcasbin: filter must be a Filter or *Filter")
	ErrNoRowsAffected    = errors.New("pgxcasbin: no rows affected")
	ErrInvalidChannel    = errors.New("pgxcasbin: channel must be a plain identifier")
	ErrUnknownUpdateType = errors.New("pgxcasbin: unknown update type")
)
