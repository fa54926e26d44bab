// apps/go-server/internal/ticket/ticket.go
//
// Session tickets: short-lived HS256 JWTs handed out with `match-found`.
// Responsibilities:
//   - Issue a ticket binding a session id to the queue-assigned player id/name.
//   - Verify a ticket against the session it is presented to.
//   - Extract a ticket from a request (query, bearer header) and carry the
//     verified claims through a request context.

package ticket

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL covers the hop from the queue socket to the session socket.
const DefaultTTL = 2 * time.Minute

var (
	ErrInvalid      = errors.New("invalid ticket")
	ErrWrongSession = errors.New("ticket is for another session")
)

// Claims identifies a paired player.
type Claims struct {
	SessionID string
	PlayerID  string
	Name      string
	ExpiresAt time.Time
}

// Issuer signs and verifies tickets with one shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A non-positive ttl uses DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a ticket for playerID in sessionID.
func (i *Issuer) Issue(sessionID, playerID, name string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":  sessionID,
		"pid":  playerID,
		"name": name,
		"exp":  now.Add(i.ttl).Unix(),
		"iat":  now.Unix(),
	})
	return token.SignedString(i.secret)
}

// Verify checks the signature, expiry and session binding of a ticket.
func (i *Issuer) Verify(tokenStr, sessionID string) (*Claims, error) {
	mc := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, mc, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalid
	}
	sid, _ := mc["sid"].(string)
	pid, _ := mc["pid"].(string)
	name, _ := mc["name"].(string)
	if sid == "" || pid == "" {
		return nil, ErrInvalid
	}
	if sid != sessionID {
		return nil, ErrWrongSession
	}
	c := &Claims{SessionID: sid, PlayerID: pid, Name: name}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// FromRequest returns the ticket from ?ticket= or an Authorization bearer header.
// Browsers cannot set headers on websocket upgrades, hence the query parameter.
func FromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("ticket"); t != "" {
		return t
	}
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

type contextKey string

var claimsCtxKey = contextKey("ticket")

// WithClaims stores verified claims on ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// FromContext returns the claims stored by WithClaims, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, _ := ctx.Value(claimsCtxKey).(*Claims)
	return c, c != nil
}
