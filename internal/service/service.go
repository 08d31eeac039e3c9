package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	KeyJWTSecret                    = "JWT_SECRET"
	RoleAdmin                       = "admin"
	KeyCtxAdminClaims    contextKey = "AdminClaims"
	MinCodeforcesHandle             = 3
	MaxCodeforcesHandle             = 24
)

var (
	// used for validating struct fields, safe for concurrent use
	validate = initValidator()
	dbPool   *pgxpool.Pool
)

// pool can be nil when the caller never opens transactions (tests)
func InitializeServices(pool *pgxpool.Pool) {
	dbPool = pool
}

func initValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// This makes error.Field() return "first_name" instead of "FirstName"
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

func GetNewTransaction(ctx context.Context) (pgx.Tx, error) {
	if dbPool == nil {
		err := fmt.Errorf("%w, database pool is not initialized", potd_errors.ErrInternal)
		log.Error(err)
		return nil, err
	}
	tx, err := dbPool.Begin(ctx)
	if err != nil {
		err = fmt.Errorf("%w, cannot begin transaction, %w", potd_errors.ErrInternal, err)
		log.Error(err)
		return nil, err
	}
	return tx, nil
}

func GetClaimsFromContext(
	ctx context.Context,
) (claims AdminClaims, err error) {
	claimsValue := ctx.Value(KeyCtxAdminClaims)
	claims, ok := claimsValue.(AdminClaims)
	if !ok {
		err = fmt.Errorf(
			"%w, unable to parse claims to service.AdminClaims, type of claims found is %T",
			potd_errors.ErrUnAuthorized,
			claimsValue,
		)
		log.Error(err)
	}
	return
}
