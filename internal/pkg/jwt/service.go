package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ScopeOperator tokens may call admin routes and act on any subject.
	ScopeOperator = "operator"
	// ScopeSubject tokens are bound to a single subject id.
	ScopeSubject = "subject"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrNoSecret     = errors.New("jwt secret is not configured")
)

type Claims struct {
	SubjectID uuid.UUID `json:"subject_id,omitempty"`
	Operator  string    `json:"operator,omitempty"`
	Scope     string    `json:"scope"`

	jwtlib.RegisteredClaims
}

func (c Claims) IsOperator() bool {
	return c.Scope == ScopeOperator
}

// CanAccess reports whether the token may act on the given subject.
func (c Claims) CanAccess(id uuid.UUID) bool {
	return c.IsOperator() || (c.Scope == ScopeSubject && c.SubjectID == id)
}

type Service interface {
	GenerateSubjectToken(subjectID uuid.UUID) (string, error)
	GenerateOperatorToken(name string, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (Claims, error)
}

type HMACService struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration

	now func() time.Time
}

func NewHMACService(secret, issuer string, expiresIn time.Duration) *HMACService {
	return &HMACService{
		secret:    []byte(secret),
		issuer:    strings.TrimSpace(issuer),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (s *HMACService) GenerateSubjectToken(subjectID uuid.UUID) (string, error) {
	if subjectID == uuid.Nil {
		return "", ErrTokenInvalid
	}
	return s.generate(Claims{SubjectID: subjectID, Scope: ScopeSubject}, subjectID.String(), s.expiresIn)
}

// GenerateOperatorToken mints an admin token. A ttl <= 0 uses the configured lifetime.
func (s *HMACService) GenerateOperatorToken(name string, ttl time.Duration) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrTokenInvalid
	}
	if ttl <= 0 {
		ttl = s.expiresIn
	}
	return s.generate(Claims{Operator: name, Scope: ScopeOperator}, "operator:"+name, ttl)
}

func (s *HMACService) ValidateToken(tokenString string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrNoSecret
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	var c Claims
	tok, err := jwtlib.NewParser(opts...).ParseWithClaims(tokenString, &c, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}

	switch c.Scope {
	case ScopeOperator:
		if c.Operator == "" {
			return Claims{}, ErrTokenInvalid
		}
	case ScopeSubject:
		if c.SubjectID == uuid.Nil {
			return Claims{}, ErrTokenInvalid
		}
	default:
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

func (s *HMACService) generate(c Claims, sub string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	if ttl <= 0 {
		return "", ErrTokenInvalid
	}

	now := s.now().UTC()
	c.RegisteredClaims = jwtlib.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   sub,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c)
	return t.SignedString(s.secret)
}
