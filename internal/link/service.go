package link

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/sluggen"
)

const (
	DefaultNameLength     = 7
	MaxNameLength         = 64
	MaxLinkLength         = 2048
	DefaultNameMaxRetries = 3
)

// ReservedNames are first path segments claimed by other routes. A link
// with one of these names could never be reached.
var ReservedNames = []string{"api", "ui", "x"}

// Service defines the link operations exposed to the HTTP and CLI layers.
type Service interface {
	Create(ctx context.Context, nl NewLink) (Link, error)
	List(ctx context.Context) ([]Link, error)
	Update(ctx context.Context, id int64, changes UpdatableLink) error
	Delete(ctx context.Context, id int64) error
	// Resolve returns the destination for name and records one use.
	// Missing and disabled links both fail with errx.NotFound.
	Resolve(ctx context.Context, name string) (*url.URL, error)
}

type service struct {
	repo           Repository
	nameGenerator  sluggen.Generator
	nameLength     int
	nameMaxRetries int
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	NameGenerator  sluggen.Generator
	NameLength     int
	NameMaxRetries int // attempts when generating a unique name (default: 3)
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	gen := config.NameGenerator
	if gen == nil {
		gen = sluggen.NewBase62()
	}

	length := config.NameLength
	if length <= 0 || length > MaxNameLength {
		length = DefaultNameLength
	}

	retries := config.NameMaxRetries
	if retries <= 0 {
		retries = DefaultNameMaxRetries
	}

	return &service{
		repo:           repo,
		nameGenerator:  gen,
		nameLength:     length,
		nameMaxRetries: retries,
	}
}

// Create validates nl and stores it. Without a name, one is generated and
// regenerated on conflict.
func (s *service) Create(ctx context.Context, nl NewLink) (Link, error) {
	const op = "link.service.Create"

	if err := validateLink(nl.Link); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	if nl.Name != "" {
		if err := validateName(nl.Name); err != nil {
			return Link{}, errx.E(op, errx.Invalid, err)
		}
		created, err := s.repo.Insert(ctx, nl)
		if err != nil {
			return Link{}, errx.Wrap(op, err)
		}
		return created, nil
	}

	for range s.nameMaxRetries {
		name, err := s.nameGenerator.Generate(s.nameLength)
		if err != nil {
			return Link{}, errx.E(op, errx.Internal, err)
		}

		created, err := s.repo.Insert(ctx, NewLink{Name: name, Link: nl.Link})
		if err == nil {
			return created, nil
		}
		if errx.KindOf(err) != errx.Conflict {
			return Link{}, errx.Wrap(op, err)
		}
	}

	return Link{}, errx.E(op, errx.Internal,
		errors.New("could not generate unique name after retries"))
}

func (s *service) List(ctx context.Context) ([]Link, error) {
	const op = "link.service.List"

	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, errx.Wrap(op, err)
	}
	if links == nil {
		links = []Link{}
	}
	return links, nil
}

// Update applies the non-nil fields of changes. Usage counts are not
// part of a changeset and can't be set here.
func (s *service) Update(ctx context.Context, id int64, changes UpdatableLink) error {
	const op = "link.service.Update"

	if changes.IsEmpty() {
		return errx.E(op, errx.Invalid, errors.New("no fields to update"))
	}
	if changes.Name != nil {
		if err := validateName(*changes.Name); err != nil {
			return errx.E(op, errx.Invalid, err)
		}
	}
	if changes.Link != nil {
		if err := validateLink(*changes.Link); err != nil {
			return errx.E(op, errx.Invalid, err)
		}
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return errx.Wrap(op, err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	const op = "link.service.Delete"

	if err := s.repo.Delete(ctx, id); err != nil {
		return errx.Wrap(op, err)
	}
	return nil
}

func (s *service) Resolve(ctx context.Context, name string) (*url.URL, error) {
	const op = "link.service.Resolve"

	if name == "" {
		return nil, errx.E(op, errx.NotFound, errors.New("empty name"))
	}
	// No stored name can match, and Postgres rejects the parameter outright.
	if !utf8.ValidString(name) {
		return nil, errx.E(op, errx.NotFound, errors.New("name is not valid UTF-8"))
	}

	l, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, errx.Wrap(op, err)
	}

	if !l.Enabled {
		return nil, errx.E(op, errx.NotFound, fmt.Errorf("link %d is disabled", l.ID))
	}

	dest, err := parseAbsolute(l.Link)
	if err != nil {
		return nil, errx.E(op, errx.Internal, fmt.Errorf("stored destination of link %d: %w", l.ID, err))
	}

	if err := s.repo.IncrementUsage(ctx, l.ID); err != nil {
		return nil, errx.Wrap(op, err)
	}
	return dest, nil
}

func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, errors.New("missing scheme")
	}
	return u, nil
}

func validateLink(raw string) error {
	if raw == "" {
		return errors.New("the provided link was invalid: link cannot be empty")
	}
	if len(raw) > MaxLinkLength {
		return fmt.Errorf("the provided link was invalid: too long (max %d characters)", MaxLinkLength)
	}
	if _, err := parseAbsolute(raw); err != nil {
		return fmt.Errorf("the provided link was invalid: %w", err)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New("the provided name was invalid: name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("the provided name was invalid: too long (max %d characters)", MaxNameLength)
	}
	if !utf8.ValidString(name) {
		return errors.New("the provided name was invalid: must be valid UTF-8")
	}
	if strings.ContainsAny(name, "/?#") || strings.IndexFunc(name, isSpaceOrControl) >= 0 {
		return errors.New("the provided name was invalid: must be a single path segment")
	}
	// Clients collapse dot segments before sending the request.
	if name == "." || name == ".." {
		return fmt.Errorf("the provided name was invalid: %q can't be used as a path segment", name)
	}
	if slices.Contains(ReservedNames, name) {
		return fmt.Errorf("the provided name was invalid: %q is reserved", name)
	}
	return nil
}

func isSpaceOrControl(r rune) bool {
	return r <= ' ' || r == 0x7f
}
