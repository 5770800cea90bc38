package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/models"
)

const (
	loginPath  = "/api/login"
	logoutPath = "/api/logout"
)

// Credentials are posted to the login endpoint.
type Credentials struct {
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required"` //nolint:gosec
}

type loginResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// Login exchanges credentials for a token and saves the session.
// A 401 here means wrong credentials and does not trigger the unauthorized hook.
func (c *Client) Login(ctx context.Context, creds Credentials) (*models.User, error) {
	creds.Mobile = strings.TrimSpace(creds.Mobile)

	var resp loginResponse
	if err := c.do(ctx, c.anon, http.MethodPost, loginPath, creds, &resp, false); err != nil {
		if KindOf(err) == KindUnauthorized {
			return nil, &Error{Kind: KindValidation, Status: http.StatusUnauthorized, Message: "invalid mobile number or password"}
		}

		return nil, err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}

	if token == "" || resp.User == nil {
		return nil, &Error{Kind: KindServer, Message: "login response carried no token"}
	}

	if err := c.store.Save(token, resp.User); err != nil {
		return nil, err //nolint:wrapcheck
	}

	log.Info().Uint64("userID", resp.User.ID).Str("role", resp.User.Role.String()).Msg("signed in")

	return resp.User, nil
}

// Logout revokes the token on the backend and clears the session whatever the outcome.
func (c *Client) Logout(ctx context.Context) error {
	var err error

	if c.store.Token() != "" {
		err = c.Do(ctx, http.MethodPost, logoutPath, nil, nil)
		if IsUnauthorized(err) {
			err = nil
		}
	}

	if clearErr := c.store.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}

	return err
}
