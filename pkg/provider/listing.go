package provider

import (
	"context"
	"io"
	"strings"
)

// DirPrefix converts a normalized path into the directory-style listing
// prefix backends match keys against. The empty path listing the whole
// keyspace stays empty; everything else gains a trailing separator so that
// an object whose key equals the path never matches its own listing.
func DirPrefix(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

// ListingFunc adapts a function to the Listing interface.
type ListingFunc func(ctx context.Context) ([]Entry, error)

// Next implements Listing.
func (f ListingFunc) Next(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// NewSliceListing returns a Listing over an in-memory slice, paged by
// pageSize. Backends that materialize their results cheaply (local
// filesystem, single-object HTTP) use it to satisfy the lazy contract.
func NewSliceListing(entries []Entry, pageSize int) Listing {
	if pageSize <= 0 {
		pageSize = len(entries)
	}
	pos := 0
	return ListingFunc(func(ctx context.Context) ([]Entry, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pos >= len(entries) {
			return nil, io.EOF
		}
		end := pos + pageSize
		if end > len(entries) {
			end = len(entries)
		}
		page := entries[pos:end]
		pos = end
		return page, nil
	})
}

// NewErrListing returns a Listing whose first Next call fails with err.
func NewErrListing(err error) Listing {
	return ListingFunc(func(ctx context.Context) ([]Entry, error) {
		return nil, err
	})
}

// Drain consumes a listing to completion, returning all entries.
//
// Intended for callers that know the listing is bounded; the gateway
// consumes listings incrementally instead.
func Drain(ctx context.Context, l Listing) ([]Entry, error) {
	var all []Entry
	for {
		page, err := l.Next(ctx)
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
}
