// Package services contains the application services of the Authgate server.
package services

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strconv"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	pwd "github.com/dmitrijs2005/authgate/internal/server/password"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authgate/internal/server/token"
	"github.com/google/uuid"
)

const (
	IdentifierKindEmail    = "email"
	IdentifierKindUsername = "username"
)

const (
	opRegister = "register"
	opLogin    = "login"
	opVerify   = "verify"
)

// Session is the result of a successful login or verification: the signed
// token the client presents next time and the opaque value embedded in it.
type Session struct {
	UserID int64
	Token  string
	Opaque string
}

// AuthService implements the credential and session lifecycle: registration,
// login and the verify-and-rotate step that gates authenticated requests.
type AuthService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	issuer         *token.Issuer
	identifierKind string
	logger         logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, issuer *token.Issuer, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:             db,
		repomanager:    m,
		issuer:         issuer,
		identifierKind: cfg.IdentifierKind,
		logger:         logger,
	}
}

// audit records an auth incident. Writes are best-effort: a failed insert is
// logged and otherwise ignored, it must never fail the request itself.
func (s *AuthService) audit(ctx context.Context, identifier, operation string, publicErr error, detail error, message string) {
	entry := &models.AuditEntry{
		ID:          uuid.NewString(),
		Identifier:  identifier,
		Operation:   operation,
		PublicError: publicErr.Error(),
		Message:     message,
		CreatedAt:   time.Now(),
	}
	if detail != nil {
		entry.Detail = detail.Error()
	}

	repo := s.repomanager.AuditLog(s.db)
	if err := repo.Create(ctx, entry); err != nil {
		s.logger.Warn(ctx, "audit log write failed", "error", err)
	}
}

// Register validates the identifier and password, stores the credential and
// returns the identifier back. Policy violations surface as
// common.ErrorInvalidEmail, common.ErrorWeakPassword or
// common.ErrorDuplicateIdentifier; everything else collapses into
// common.ErrorDatabase or common.ErrorInternal.
func (s *AuthService) Register(ctx context.Context, identifier string, password string) (string, error) {

	if s.identifierKind == IdentifierKindEmail {
		if _, err := mail.ParseAddress(identifier); err != nil {
			return "", common.ErrorInvalidEmail
		}
	}

	digest, err := pwd.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrorWeakPassword) {
			return "", err
		}
		return "", common.ErrorInternal
	}

	repo := s.repomanager.Credentials(s.db)

	if _, err := repo.Create(ctx, identifier, []byte(digest)); err != nil {
		if errors.Is(err, common.ErrorDuplicateIdentifier) {
			return "", err
		}
		s.audit(ctx, identifier, opRegister, common.ErrorDatabase, err, "credential insert failed")
		return "", common.ErrorDatabase
	}

	return identifier, nil
}

// Login verifies the submitted password, mints a fresh opaque value, persists
// it and returns it embedded in a newly signed token. Unknown identifier and
// wrong password both come back as common.ErrorInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, identifier string, password string) (*Session, error) {

	repo := s.repomanager.Credentials(s.db)

	cred, err := repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.audit(ctx, identifier, opLogin, common.ErrorInvalidCredentials, err, "unknown identifier")
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorDatabase
	}

	ok, err := pwd.Verify(password, string(cred.PasswordHash))
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		s.audit(ctx, identifier, opLogin, common.ErrorInvalidCredentials, nil, "password mismatch")
		return nil, common.ErrorInvalidCredentials
	}

	opaque := common.GenerateOpaqueToken()
	if err := repo.UpdateOpaque(ctx, cred.ID, &opaque); err != nil {
		return nil, common.ErrorDatabase
	}

	signed, err := s.issuer.Issue(cred.ID, opaque)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{UserID: cred.ID, Token: signed, Opaque: opaque}, nil
}

// VerifyAndRotate checks the signed token for userID, then swaps the stored
// opaque value for a fresh one in a single conditional update. On success it
// returns a new Session carrying the rotated value, which makes every issued
// token single-use.
//
// A failed swap is inspected once: a missing or empty record means the user
// simply has to log in again (common.ErrorInvalidOpaque); a record holding a
// different value means the presented token was already spent, the session is
// revoked and the caller gets common.ErrorUnauthorizedAccess.
func (s *AuthService) VerifyAndRotate(ctx context.Context, userID int64, tokenString string) (*Session, error) {

	subject := strconv.FormatInt(userID, 10)

	opaque, err := s.issuer.Verify(userID, tokenString)
	if err != nil {
		s.audit(ctx, subject, opVerify, err, nil, "token verification failed")
		return nil, err
	}

	repo := s.repomanager.Credentials(s.db)

	next := common.GenerateOpaqueToken()

	swapped, err := repo.CompareAndSwapOpaque(ctx, userID, opaque, next)
	if err != nil {
		return nil, common.ErrorDatabase
	}

	if !swapped {
		var failure error

		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			txRepo := s.repomanager.Credentials(tx)

			cred, err := txRepo.FindByID(ctx, userID)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					failure = common.ErrorInvalidOpaque
					return nil
				}
				return err
			}
			if !cred.Opaque.Valid {
				failure = common.ErrorInvalidOpaque
				return nil
			}

			// The stored value exists but differs: the presented token
			// was already used. Revoke the session entirely.
			failure = common.ErrorUnauthorizedAccess
			return txRepo.UpdateOpaque(ctx, userID, nil)
		})
		if err != nil {
			return nil, common.ErrorDatabase
		}

		if errors.Is(failure, common.ErrorUnauthorizedAccess) {
			s.audit(ctx, subject, opVerify, common.ErrorUnauthorizedAccess, nil, "opaque value mismatch, session revoked")
		}
		return nil, failure
	}

	signed, err := s.issuer.Issue(userID, next)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{UserID: userID, Token: signed, Opaque: next}, nil
}
