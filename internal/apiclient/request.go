package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/validation"
	"refactortrack/pkg/cache"
)

// ReadRequest describes a cached GET
type ReadRequest struct {
	// Namespace keys the cache; its resource prefix is what writes invalidate
	Namespace string
	Path      string
	// Params are validated, key the cache entry and become the query string
	Params any
	// Vars are the values already interpolated into Path. They key the cache
	// entry but are never sent as query.
	Vars any
	// Public calls carry no bearer token
	Public bool
	// NoCache bypasses the read cache entirely
	NoCache bool
}

// WriteRequest describes a mutation
type WriteRequest struct {
	Method string
	Path   string
	Body   any
	// Invalidate lists the cache prefixes dropped after a successful call
	Invalidate []string
	Public     bool
	// Token overrides the token source for this call
	Token     string
	Namespace string
}

// Read performs the cached read flow and decodes the validated payload into out.
// A cache write failure is returned as a storage error with out still populated.
func (c *Client) Read(ctx context.Context, req ReadRequest, out any) error {
	if req.Params != nil {
		if err := validation.Value(c.validate, req.Params); err != nil {
			return apperrors.FromValidator(req.Namespace+" parameters", err)
		}
	}

	if req.Vars != nil {
		if err := validation.Value(c.validate, req.Vars); err != nil {
			return apperrors.FromValidator(req.Namespace+" parameters", err)
		}
	}

	key, err := cache.Key(req.Namespace, cacheParams(req))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if !req.NoCache {
		err := c.cache.Get(ctx, key, out)
		switch {
		case err == nil:
			c.metrics.CacheHit(req.Namespace)
			c.log.LogCache(ctx, key, true)
			return nil
		case errors.Is(err, cache.ErrCacheMiss):
			c.metrics.CacheMiss(req.Namespace)
			c.log.LogCache(ctx, key, false)
		default:
			c.log.LogCacheFailure(ctx, "get", key, err)
			return apperrors.Storage("cache read", err)
		}
	}

	query, err := EncodeQuery(req.Params)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	body, err := c.execute(ctx, call{
		method:     http.MethodGet,
		path:       req.Path,
		query:      query,
		public:     req.Public,
		idempotent: true,
		namespace:  req.Namespace,
	})
	if err != nil {
		return err
	}

	if err := c.decode(body, out); err != nil {
		return err
	}

	if !req.NoCache {
		if err := c.cache.Set(ctx, key, out); err != nil {
			c.log.LogCacheFailure(ctx, "set", key, err)
			return apperrors.Storage("cache write", err)
		}
	}
	return nil
}

// Write validates the body, performs the call and invalidates the listed prefixes.
// Only PUT and DELETE are retried.
func (c *Client) Write(ctx context.Context, req WriteRequest, out any) error {
	var payload []byte
	if req.Body != nil {
		if err := validation.Value(c.validate, req.Body); err != nil {
			return apperrors.FromValidator("request body", err)
		}
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		payload = data
	}

	body, err := c.execute(ctx, call{
		method:     req.Method,
		path:       req.Path,
		body:       payload,
		public:     req.Public,
		token:      req.Token,
		idempotent: req.Method == http.MethodPut || req.Method == http.MethodDelete,
		namespace:  req.Namespace,
	})
	if err != nil {
		return err
	}

	// the server state changed even if the answer turns out malformed
	var invalidateErr error
	for _, prefix := range req.Invalidate {
		if _, err := c.cache.DeletePrefix(ctx, prefix); err != nil {
			c.log.LogCacheFailure(ctx, "invalidate", prefix, err)
			invalidateErr = errors.Join(invalidateErr, apperrors.Storage("cache invalidate", err))
		}
	}

	if err := c.decode(body, out); err != nil {
		return errors.Join(err, invalidateErr)
	}
	return invalidateErr
}

func cacheParams(req ReadRequest) any {
	if req.Vars == nil {
		return req.Params
	}
	return struct {
		Vars   any `json:"vars"`
		Params any `json:"params,omitempty"`
	}{req.Vars, req.Params}
}

// EncodeQuery turns a params struct into query values using its JSON field names.
// Zero values and empty strings are omitted; slices are joined with commas.
func EncodeQuery(params any) (url.Values, error) {
	if params == nil {
		return nil, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encode query: params must be an object: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		if s, ok := queryValue(fields[k]); ok {
			values.Set(k, s)
		}
	}
	return values, nil
}

func queryValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		return strconv.FormatBool(t), t
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := queryValue(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), len(parts) > 0
	default:
		return fmt.Sprint(t), true
	}
}
