package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an identifier and password and attempts to
// create a new account.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is securely wiped before returning. Any I/O or service error is returned
// unchanged.
func (a *App) Register(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter identifier (email)", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	registered, err := a.api.Register(ctx, identifier, password)
	if err != nil {
		log.Printf("Registration unsuccessfull: %s", err.Error())
		return err
	}

	fmt.Printf("Success! Registered %s\n", registered)
	return nil
}

// Login prompts the user for credentials and tries to authenticate. On
// success the fresh session is kept in memory for subsequent commands; each
// of those rotates it. The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter identifier (email)", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	session, err := a.api.Login(ctx, identifier, password)
	if err != nil {
		log.Printf("Login unsuccessfull: %s", err.Error())
		a.session = nil
		a.identifier = ""
		return err
	}

	log.Printf("Login successfull")
	a.session = session
	a.identifier = identifier
	return nil
}

// Whoami asks the server for the authenticated user id, proving the held
// session is still live. A rejection means the session was spent or revoked,
// so it is dropped locally.
func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Not logged in")
		return nil
	}

	userID, err := a.api.Whoami(ctx, a.session)
	if err != nil {
		log.Printf("Session rejected: %s", err.Error())
		a.session = nil
		a.identifier = ""
		return err
	}

	fmt.Printf("Logged in as %s (user id %d)\n", a.identifier, userID)
	return nil
}

// Logout drops the in-memory session. The server-held opaque value simply
// goes stale; the next login replaces it.
func (a *App) Logout(ctx context.Context) error {
	a.session = nil
	a.identifier = ""
	return nil
}
