package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type (
	// ListFunc fetches the current ordered listing from a backing system.
	ListFunc[T any] func(ctx context.Context) ([]T, error)

	// Listing describes a selection step: what is listed and how each entry
	// is shown to the operator.
	Listing[T any] struct {
		Noun  string
		List  ListFunc[T]
		Label func(T) string
	}
)

// ResolveByOrdinal fetches a fresh listing and returns the element at the
// 1-based ordinal. Nothing is cached between calls, so the entity shown to
// the operator and the one resolved here come from two different fetches.
// A change to the backing system in between can shift the entry at an
// ordinal; that race is accepted and not detected.
func ResolveByOrdinal[T any](ctx context.Context, list ListFunc[T], ordinal int) (T, error) {
	var zero T

	items, err := list(ctx)
	if err != nil {
		return zero, ExternalFailure("list", err)
	}

	if ordinal < 1 || ordinal > len(items) {
		return zero, ErrNotFound
	}
	return items[ordinal-1], nil
}

// ParseOrdinal converts operator input into an ordinal.
func ParseOrdinal(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, Invalid("%q is not a number", input)
	}
	return n, nil
}

// Choose shows the listing numbered from 1, asks for an ordinal and resolves
// it with ResolveByOrdinal.
func Choose[T any](ctx context.Context, s *Session, l Listing[T]) (T, error) {
	var zero T

	items, err := l.List(ctx)
	if err != nil {
		return zero, ExternalFailure("list "+l.Noun+"s", err)
	}
	if len(items) == 0 {
		return zero, Invalid("no %ss found", l.Noun)
	}

	s.Printer.Numbered(strings.ToUpper(l.Noun[:1])+l.Noun[1:], lo.Map(items, func(item T, _ int) string {
		return l.Label(item)
	}))

	input, err := s.Prompt.Ask(fmt.Sprintf("Enter %s number", l.Noun))
	if err != nil {
		return zero, err
	}

	ordinal, err := ParseOrdinal(input)
	if err != nil {
		return zero, err
	}
	return ResolveByOrdinal(ctx, l.List, ordinal)
}
