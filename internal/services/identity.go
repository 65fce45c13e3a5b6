package services

import (
	"context"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/internal/session"
)

const (
	ProviderFirebase = "firebase"
	ProviderSession  = "session"
)

// TokenVerifier checks identity provider ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// SessionClaims are the claims of a session token issued by this server
type SessionClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and parses HS256 session tokens
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionIssuer creates a new SessionIssuer
func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a session token for s
func (i *SessionIssuer) Issue(s *session.Session) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UID:   s.UID,
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return token, nil
}

// Parse validates a session token and returns its session
func (i *SessionIssuer) Parse(tokenString string) (*session.Session, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid || claims.UID == "" {
		return nil, ErrInvalidToken
	}
	return &session.Session{UID: claims.UID, Email: claims.Email, Provider: ProviderSession}, nil
}

// IdentityService adapts the external identity provider: it turns tokens into sessions
// and binds identities to their profile records.
type IdentityService struct {
	verifier TokenVerifier
	issuer   *SessionIssuer
	profiles *ProfileService
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(verifier TokenVerifier, issuer *SessionIssuer, profiles *ProfileService) *IdentityService {
	return &IdentityService{verifier: verifier, issuer: issuer, profiles: profiles}
}

// Authenticate accepts a session token issued by Login/Register or a raw identity provider ID token.
func (s *IdentityService) Authenticate(ctx context.Context, bearer string) (*session.Session, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, ErrNotAuthenticated
	}
	if sess, err := s.issuer.Parse(bearer); err == nil {
		return sess, nil
	}
	return s.verify(ctx, bearer)
}

func (s *IdentityService) verify(ctx context.Context, idToken string) (*session.Session, error) {
	if s.verifier == nil {
		return nil, ErrInvalidToken
	}
	token, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess := &session.Session{UID: token.UID, Provider: ProviderFirebase}
	if email, ok := token.Claims["email"].(string); ok {
		sess.Email = email
	}
	return sess, nil
}

// Register creates the profile of a freshly signed-up identity and returns it with a session token.
// Registering an identity that already has a profile returns the stored profile unchanged.
func (s *IdentityService) Register(ctx context.Context, idToken, displayName string) (*models.Profile, string, error) {
	sess, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, "", err
	}
	profile := &models.Profile{ID: sess.UID, Email: sess.Email, DisplayName: displayName}
	err = s.profiles.CreateProfile(ctx, profile)
	if errors.Is(err, repositories.ErrConflict) {
		profile, err = s.profiles.GetProfile(ctx, sess.UID)
	}
	if err != nil {
		return nil, "", err
	}
	token, err := s.issuer.Issue(sess)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// Login exchanges an ID token for a session token. The identity must have registered.
func (s *IdentityService) Login(ctx context.Context, idToken string) (*models.Profile, string, error) {
	sess, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, "", err
	}
	profile, err := s.profiles.GetProfile(ctx, sess.UID)
	if err != nil {
		return nil, "", err
	}
	token, err := s.issuer.Issue(sess)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// Current returns the profile of the identity signed in on ctx.
func (s *IdentityService) Current(ctx context.Context) (*models.Profile, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return s.profiles.GetProfile(ctx, sess.UID)
}

// CurrentUID returns the uid signed in on ctx, or ErrNotAuthenticated.
func CurrentUID(ctx context.Context) (string, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return "", ErrNotAuthenticated
	}
	return sess.UID, nil
}
