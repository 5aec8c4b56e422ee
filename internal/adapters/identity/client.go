// Package identity talks to the /auth endpoints of the AllergyScan API.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bnema/allergyscan-cli/internal/adapters/httpapi"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/ports"
	"go.uber.org/zap"
)

const (
	LoginPath           = "/auth/login"
	RegisterPath        = "/auth/register"
	RefreshPath         = "/auth/refresh"
	MePath              = "/auth/me"
	MeAllergiesPath     = "/auth/me/allergies"
	CommonAllergiesPath = "/auth/allergies/common"
)

type StatusError = httpapi.StatusError

// Client is stateless; it never retries and never touches stored tokens.
type Client struct {
	api httpapi.Client
}

var (
	_ ports.IdentityClient = (*Client)(nil)
	_ ports.ProfileClient  = (*Client)(nil)
)

func NewClient(baseURL string, httpClient *http.Client, requestTimeout time.Duration, log *zap.Logger) *Client {
	return &Client{api: httpapi.Client{
		BaseURL:        baseURL,
		HTTPClient:     httpClient,
		RequestTimeout: requestTimeout,
		Logger:         log,
	}}
}

func (c *Client) Login(ctx context.Context, username, password string) (domain.TokenPair, error) {
	values := url.Values{}
	values.Set("username", username)
	values.Set("password", password)
	body, contentType := httpapi.FormBody(values)

	var pair domain.TokenPair
	err := c.api.Do(ctx, httpapi.Request{
		Op:          "login",
		Method:      http.MethodPost,
		Path:        LoginPath,
		Body:        body,
		ContentType: contentType,
	}, &pair)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !pair.Complete() {
		return domain.TokenPair{}, errors.New("login response missing tokens")
	}

	return pair, nil
}

func (c *Client) Register(ctx context.Context, email, username, password string) error {
	body, contentType, err := httpapi.JSONBody(map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	return c.api.Do(ctx, httpapi.Request{
		Op:          "register",
		Method:      http.MethodPost,
		Path:        RegisterPath,
		Body:        body,
		ContentType: contentType,
	}, nil)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	body, contentType, err := httpapi.JSONBody(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return domain.TokenPair{}, err
	}

	var pair domain.TokenPair
	err = c.api.Do(ctx, httpapi.Request{
		Op:          "refresh",
		Method:      http.MethodPost,
		Path:        RefreshPath,
		Body:        body,
		ContentType: contentType,
	}, &pair)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !pair.Complete() {
		return domain.TokenPair{}, errors.New("refresh response missing tokens")
	}

	return pair, nil
}

func (c *Client) Me(ctx context.Context, accessToken string) (domain.User, error) {
	var user domain.User
	err := c.api.Do(ctx, httpapi.Request{
		Op:          "me",
		Method:      http.MethodGet,
		Path:        MePath,
		BearerToken: accessToken,
	}, &user)
	if err != nil {
		return domain.User{}, err
	}

	return user, nil
}

type updateAllergiesResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) UpdateAllergies(ctx context.Context, accessToken string, allergies []domain.Allergy) error {
	if allergies == nil {
		allergies = []domain.Allergy{}
	}
	body, contentType, err := httpapi.JSONBody(map[string][]domain.Allergy{"allergies": allergies})
	if err != nil {
		return err
	}

	var resp updateAllergiesResponse
	err = c.api.Do(ctx, httpapi.Request{
		Op:          "update allergies",
		Method:      http.MethodPut,
		Path:        MeAllergiesPath,
		Body:        body,
		ContentType: contentType,
		BearerToken: accessToken,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Status != "success" {
		if resp.Message != "" {
			return fmt.Errorf("update allergies: %s", resp.Message)
		}
		return fmt.Errorf("update allergies: unexpected status %q", resp.Status)
	}

	return nil
}

func (c *Client) CommonAllergies(ctx context.Context) ([]domain.Allergy, error) {
	var allergies []domain.Allergy
	err := c.api.Do(ctx, httpapi.Request{
		Op:     "common allergies",
		Method: http.MethodGet,
		Path:   CommonAllergiesPath,
	}, &allergies)
	if err != nil {
		return nil, err
	}

	return allergies, nil
}
