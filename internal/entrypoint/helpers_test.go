package entrypoint

import "github.com/mrlokans/sessionauth/internal/auth"

func authCreds(username, password string) auth.Credentials {
	return auth.Credentials{Username: username, Password: password}
}
