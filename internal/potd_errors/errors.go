package potd_errors

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

const (
	CodeUniqueConstraint     = "23505"
	CodeForeignKeyConstraint = "23503"
)

var (
	ErrInternal               = errors.New("internal service error. please try again later")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidUserCredentials = errors.New("invalid admin credentials")
	ErrEmailServiceStopped    = errors.New("email service is stopped currently")
	ErrUnAuthorized           = errors.New("user not allowed to perform this action")
	ErrNotFound               = errors.New("entity not found")
	ErrPartialResult          = errors.New("unable to fetch complete list of requested entities")
	ErrTaskLaunchError        = errors.New("failed to launch task")
	ErrHttpResponse           = errors.New("error occurred with http response")
	ErrUpstreamUnavailable    = errors.New("codeforces api is unavailable")
	ErrPoolExhausted          = errors.New("no unused problems left for band")
	ErrEntityAlreadyExist     = errors.New("entity with given key already exist")
)

func HandleDBErrors(
	err error,
	errMsgs map[string]map[string]string,
	contextMessage string,
) error {
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("%s, %v", contextMessage, ErrNotFound)
		return fmt.Errorf("%w, %s", ErrNotFound, contextMessage)
	}

	// check if its a pg error
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		err = fmt.Errorf("%w, %s, %w", ErrInternal, contextMessage, err)
		log.Error(err)
		return err
	}

	if errMsgs == nil {
		log.Warnf("got null errMsgs")
		err = fmt.Errorf("%w, %s, %w", ErrInternal, contextMessage, err)
		log.Error(err)
		return err
	}

	if pgErr.Code == CodeForeignKeyConstraint {
		msgForeignKey, ok := errMsgs[CodeForeignKeyConstraint]
		if !ok {
			log.Warnf("no msg map found for foreign key constraint.")
			return fmt.Errorf("%w, %s", ErrInvalidRequest, pgErr.Detail)
		}
		return handleConstraintError(pgErr, msgForeignKey, ErrInvalidRequest)
	}

	if pgErr.Code == CodeUniqueConstraint {
		msgUniqueConstraint, ok := errMsgs[CodeUniqueConstraint]
		if !ok {
			log.Warnf("no msg map found for unique key constraint.")
			return fmt.Errorf("%w, %s", ErrEntityAlreadyExist, pgErr.Detail)
		}
		return handleConstraintError(pgErr, msgUniqueConstraint, ErrEntityAlreadyExist)
	}

	// unknown error
	err = fmt.Errorf("%w, %s, %w", ErrInternal, contextMessage, err)
	log.Error(err)
	return err
}

func handleConstraintError(
	pgErr *pgconn.PgError,
	msgs map[string]string,
	sentinel error,
) error {
	msg, ok := msgs[pgErr.ConstraintName]
	if !ok {
		log.Warnf("unknown constraint violation, %s", pgErr.ConstraintName)
		msg = pgErr.Detail
	}
	err := fmt.Errorf("%w, %s", sentinel, msg)
	log.Error(err)
	return err
}

// wraps errors coming from calls to codeforces
func WrapUpstreamError(err error) error {
	var opError *net.OpError
	if errors.As(err, &opError) {
		return fmt.Errorf(
			"%w, \"%s\" error occurred during \"%s\" operation, network: %s, dest: %s",
			ErrUpstreamUnavailable,
			opError.Error(),
			opError.Op,
			opError.Net,
			opError.Addr,
		)
	}

	return fmt.Errorf("%w, %w", ErrUpstreamUnavailable, err)
}
