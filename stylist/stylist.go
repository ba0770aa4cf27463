package stylist

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"sori/log"
)

type cacheKey struct {
	style Style
	text  string
}

// Stylist applies the current style. It is safe for concurrent use; the
// style can be switched while a transform is in flight.
type Stylist struct {
	c     Completer
	style atomic.Value // Style
	cache *lru.Cache[cacheKey, string]
}

// New returns a Stylist. A nil Completer makes Transform the identity. A
// cacheSize of zero disables caching.
func New(c Completer, style Style, cacheSize int) (*Stylist, error) {
	s := &Stylist{c: c}
	s.style.Store(style)
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, string](cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

func (s *Stylist) Style() Style { return s.style.Load().(Style) }

func (s *Stylist) SetStyle(st Style) { s.style.Store(st) }

// Enabled reports whether a model backs the transform.
func (s *Stylist) Enabled() bool { return s.c != nil }

// Transform rewrites text in the current style. Any failure returns text
// unchanged.
func (s *Stylist) Transform(ctx context.Context, text string) string {
	if s.c == nil || text == "" {
		return text
	}
	st := s.Style()
	key := cacheKey{st, text}
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v
		}
	}

	system, temp := st.Prompt()
	out, err := s.c.Complete(ctx, system, text, temp)
	if err != nil {
		log.Warnf("style transform (%s, %s) failed: %v", s.c.Name(), st, err)
		return text
	}
	out = stripQuotes(out)
	if out == "" {
		return text
	}
	if s.cache != nil {
		s.cache.Add(key, out)
	}
	return out
}
