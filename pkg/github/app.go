package github

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	"github.com/golang-jwt/jwt/v5"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// GitHub accepts app JWTs valid for at most ten minutes.
const jwtLifetime = 10 * time.Minute

// AppCredentials identify a GitHub App installation.
type AppCredentials struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKey     string `yaml:"private_key"`
}

// SecretReader fetches secret strings.
type SecretReader interface {
	SecretString(ctx context.Context, secretID string) (string, error)
}

// LoadAppCredentials reads a YAML document with app_id, installation_id and private_key from a secret.
func LoadAppCredentials(ctx context.Context, secrets SecretReader, secretID string) (AppCredentials, error) {
	raw, err := secrets.SecretString(ctx, secretID)
	if err != nil {
		return AppCredentials{}, err
	}

	var creds AppCredentials
	if err := yaml.Unmarshal([]byte(raw), &creds); err != nil {
		return AppCredentials{}, errUtils.Mark(errors.Wrapf(err, "secret %s", secretID), errUtils.ErrParseAppSecret)
	}
	return creds, nil
}

// Merge fills the zero fields of c from other.
func (c AppCredentials) Merge(other AppCredentials) AppCredentials {
	if c.AppID == 0 {
		c.AppID = other.AppID
	}
	if c.InstallationID == 0 {
		c.InstallationID = other.InstallationID
	}
	if c.PrivateKey == "" {
		c.PrivateKey = other.PrivateKey
	}
	return c
}

// Validate names every missing field.
func (c AppCredentials) Validate() error {
	var missing []string
	if c.AppID == 0 {
		missing = append(missing, "app_id")
	}
	if c.InstallationID == 0 {
		missing = append(missing, "installation_id")
	}
	if c.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) == 0 {
		return nil
	}
	return errUtils.Build(errors.Wrapf(errUtils.ErrMissingAppCredentials, "%s", strings.Join(missing, ", "))).
		WithHint("Pass --app-id, --installation-id and --private-key, or --secret-id naming a Secrets Manager secret").
		WithExample("mads github token --secret-id mads/github-app").
		Usage().
		Err()
}

// JWT signs an RS256 app token issued at now.
func (c AppCredentials) JWT(now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.PrivateKey))
	if err != nil {
		return "", errUtils.Mark(err, errUtils.ErrParsePrivateKey)
	}

	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
		Issuer:    strconv.FormatInt(c.AppID, 10),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", errUtils.Mark(err, errUtils.ErrSignJWT)
	}
	return signed, nil
}

// Token is an installation access token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Apps creates installation tokens.
type Apps struct {
	// APIURL is the REST endpoint. Empty means api.github.com.
	APIURL string
	Now    func() time.Time
}

// InstallationToken exchanges an app JWT for an installation token.
func (a Apps) InstallationToken(ctx context.Context, creds AppCredentials) (*Token, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	signed, err := creds.JWT(now())
	if err != nil {
		return nil, err
	}

	client, err := NewClient(ctx, signed, a.APIURL)
	if err != nil {
		return nil, err
	}
	token, _, err := client.Apps.CreateInstallationToken(ctx, creds.InstallationID, nil)
	if err != nil {
		return nil, errUtils.Build(errors.Wrap(err, "creating installation token")).
			WithSentinel(errUtils.ErrInstallationToken).
			WithContext("app_id", creds.AppID).
			WithContext("installation_id", creds.InstallationID).
			Err()
	}

	result := &Token{Value: token.GetToken(), ExpiresAt: token.GetExpiresAt().Time}
	log.Info("Created GitHub access token", "expires", result.ExpiresAt.Format(time.RFC3339))
	return result, nil
}
