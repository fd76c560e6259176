package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/3leaps/godrives/pkg/provider"
)

// timeFormat is the wire representation of object timestamps.
const timeFormat = time.RFC3339

// saveChunkSize is the slice size used when reassembling decoded payloads.
const saveChunkSize = 512

// Entry is one child of a directory listing.
type Entry struct {
	Path         string `json:"path"`
	LastModified string `json:"last_modified"`
	Size         int64  `json:"size"`
}

// File is the content payload for a single object.
type File struct {
	Path         string `json:"path"`
	Content      string `json:"content"`
	LastModified string `json:"last_modified"`
	Size         int64  `json:"size"`
}

// Contents is the resolved representation of a drive path: a directory
// listing (possibly empty) or a single file payload, never both.
type Contents struct {
	Dir     bool
	Entries []Entry
	File    *File
}

// Payload returns the wire-facing body: the entry list for directories, the
// file object otherwise.
func (c *Contents) Payload() any {
	if c.Dir {
		return c.Entries
	}
	return c.File
}

// node is the closed result of path disambiguation.
type node interface{ isNode() }

type dirNode struct{ entries []Entry }
type fileNode struct{ file *File }
type emptyNode struct{}

func (dirNode) isNode()   {}
func (fileNode) isNode()  {}
func (emptyNode) isNode() {}

// GetContents resolves path within drive to a directory listing or a file
// payload. Flat keyspaces carry no directory objects, so resolution is
// list-first: any entry under the prefix makes the path a directory, a
// readable object makes it a file, and an empty result falls back to the
// recognized-extension policy.
func (g *Gateway) GetContents(ctx context.Context, drive, path string) (*Contents, error) {
	p := normalizePath(path)
	binding, err := g.resolve(drive)
	if err != nil {
		return nil, &Error{Kind: KindContents, Drive: drive, Path: p, Err: err}
	}
	g.logger.Debug("resolving contents",
		zap.String("drive", drive),
		zap.String("path", p))
	resolved, err := g.resolveContents(ctx, binding.Store, p)
	if err != nil {
		return nil, &Error{Kind: KindContents, Drive: drive, Path: p, Err: err}
	}
	switch v := resolved.(type) {
	case dirNode:
		return &Contents{Dir: true, Entries: v.entries}, nil
	case fileNode:
		return &Contents{File: v.file}, nil
	default:
		return &Contents{Dir: true, Entries: []Entry{}}, nil
	}
}

// resolveContents performs the three-way directory/file/empty
// disambiguation for a normalized path.
func (g *Gateway) resolveContents(ctx context.Context, store provider.Store, p string) (node, error) {
	entries, err := g.listEntries(ctx, store, p)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return dirNode{entries: entries}, nil
	}
	if p == "" {
		// An empty drive root is an empty directory, not a missing file.
		return emptyNode{}, nil
	}
	file, err := g.fetchFile(ctx, store, p)
	if err != nil {
		return nil, err
	}
	if file.Size == 0 && !isRecognizedFile(p) {
		// A zero-byte object whose name does not look like a file is the
		// residue of a directory marker.
		return emptyNode{}, nil
	}
	return fileNode{file: file}, nil
}

// listEntries drains the listing under prefix p into wire entries.
func (g *Gateway) listEntries(ctx context.Context, store provider.Store, p string) ([]Entry, error) {
	listing := store.List(ctx, p, 0)
	var entries []Entry
	for {
		batch, err := listing.Next(ctx)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		for _, e := range batch {
			entries = append(entries, Entry{
				Path:         e.Path,
				LastModified: e.LastModified.UTC().Format(timeFormat),
				Size:         e.Size,
			})
		}
	}
}

// fetchFile reads the object at p in chunks and builds its payload,
// encoding binary extensions as base64 and everything else as UTF-8 text.
func (g *Gateway) fetchFile(ctx context.Context, store provider.Store, p string) (*File, error) {
	body, err := store.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var buf bytes.Buffer
	chunk := make([]byte, g.chunkSize)
	for {
		n, readErr := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}

	meta, err := store.Head(ctx, p)
	if err != nil {
		return nil, err
	}

	content, err := encodeContent(p, buf.Bytes())
	if err != nil {
		return nil, err
	}
	return &File{
		Path:         p,
		Content:      content,
		LastModified: meta.LastModified.UTC().Format(timeFormat),
		Size:         meta.Size,
	}, nil
}

// encodeContent picks the wire encoding for raw object bytes.
func encodeContent(p string, raw []byte) (string, error) {
	if isBase64Path(p) {
		return base64.StdEncoding.EncodeToString(raw), nil
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("object %s is not valid UTF-8 text", p)
	}
	return string(raw), nil
}

// NewFile creates an empty object or directory at path. Stores that expose
// out-of-band directory markers get one; everywhere else a directory is an
// ordinary empty object.
func (g *Gateway) NewFile(ctx context.Context, drive, path string, isDir bool) (*File, error) {
	p := normalizePath(path)
	binding, err := g.resolve(drive)
	if err != nil {
		return nil, &Error{Kind: KindCreate, Drive: drive, Path: p, Err: err}
	}

	headKey := p
	if isDir {
		if marker, ok := binding.Store.(provider.DirectoryMarkerCreator); ok {
			if err := marker.CreateDirectoryMarker(ctx, p); err != nil {
				return nil, &Error{Kind: KindCreate, Drive: drive, Path: p, Err: err}
			}
			headKey = p + "/"
		} else {
			if err := binding.Store.Put(ctx, p, strings.NewReader(""), provider.PutOverwrite); err != nil {
				return nil, &Error{Kind: KindCreate, Drive: drive, Path: p, Err: err}
			}
		}
	} else {
		if err := binding.Store.Put(ctx, p, strings.NewReader(""), provider.PutOverwrite); err != nil {
			return nil, &Error{Kind: KindCreate, Drive: drive, Path: p, Err: err}
		}
	}

	meta, err := binding.Store.Head(ctx, headKey)
	if err != nil {
		return nil, &Error{Kind: KindCreate, Drive: drive, Path: p, Err: err}
	}
	return &File{
		Path:         p,
		Content:      "",
		LastModified: meta.LastModified.UTC().Format(timeFormat),
		Size:         meta.Size,
	}, nil
}

// SaveFile writes content to path after format negotiation and returns the
// written object's metadata alongside the content as it was sent.
func (g *Gateway) SaveFile(ctx context.Context, drive, path string, content any, optionsFormat, contentFormat, contentType string) (*File, error) {
	p := normalizePath(path)
	binding, err := g.resolve(drive)
	if err != nil {
		return nil, &Error{Kind: KindSave, Drive: drive, Path: p, Err: err}
	}

	formatted, err := negotiateContent(content, optionsFormat, contentFormat, contentType)
	if err != nil {
		return nil, &Error{Kind: KindSave, Drive: drive, Path: p, Err: err}
	}
	if err := binding.Store.Put(ctx, p, bytes.NewReader(formatted), provider.PutOverwrite); err != nil {
		return nil, &Error{Kind: KindSave, Drive: drive, Path: p, Err: err}
	}
	meta, err := binding.Store.Head(ctx, p)
	if err != nil {
		return nil, &Error{Kind: KindSave, Drive: drive, Path: p, Err: err}
	}
	return &File{
		Path:         p,
		Content:      stringContent(content),
		LastModified: meta.LastModified.UTC().Format(timeFormat),
		Size:         meta.Size,
	}, nil
}

// RenameFile moves an object to a new path within the same drive.
func (g *Gateway) RenameFile(ctx context.Context, drive, path, newPath string) (*File, error) {
	p := normalizePath(path)
	dst := normalizePath(newPath)
	binding, err := g.resolve(drive)
	if err != nil {
		return nil, &Error{Kind: KindRename, Drive: drive, Path: p, Err: err}
	}
	if err := binding.Store.Rename(ctx, p, dst); err != nil {
		return nil, &Error{Kind: KindRename, Drive: drive, Path: p, Err: err}
	}
	meta, err := binding.Store.Head(ctx, dst)
	if err != nil {
		return nil, &Error{Kind: KindRename, Drive: drive, Path: dst, Err: err}
	}
	return &File{
		Path:         dst,
		LastModified: meta.LastModified.UTC().Format(timeFormat),
		Size:         meta.Size,
	}, nil
}

// DeleteFile removes the object at path. A missing object reports
// KindNotFound rather than a delete failure.
func (g *Gateway) DeleteFile(ctx context.Context, drive, path string) error {
	p := normalizePath(path)
	binding, err := g.resolve(drive)
	if err != nil {
		return &Error{Kind: KindDelete, Drive: drive, Path: p, Err: err}
	}
	if err := binding.Store.Delete(ctx, p); err != nil {
		return wrapOp(KindDelete, drive, p, err, true)
	}
	return nil
}

// CopyFile duplicates an object to a new path within the same drive.
func (g *Gateway) CopyFile(ctx context.Context, drive, path, toPath string) (*File, error) {
	p := normalizePath(path)
	dst := normalizePath(toPath)
	binding, err := g.resolve(drive)
	if err != nil {
		return nil, &Error{Kind: KindCopy, Drive: drive, Path: p, Err: err}
	}
	if err := binding.Store.Copy(ctx, p, dst); err != nil {
		return nil, &Error{Kind: KindCopy, Drive: drive, Path: p, Err: err}
	}
	meta, err := binding.Store.Head(ctx, dst)
	if err != nil {
		return nil, &Error{Kind: KindCopy, Drive: drive, Path: dst, Err: err}
	}
	return &File{
		Path:         dst,
		LastModified: meta.LastModified.UTC().Format(timeFormat),
		Size:         meta.Size,
	}, nil
}

// CheckFile reports existence purely through success or a KindNotFound
// error; it never returns a body.
func (g *Gateway) CheckFile(ctx context.Context, drive, path string) error {
	p := normalizePath(path)
	binding, err := g.resolve(drive)
	if err != nil {
		return &Error{Kind: KindNotFound, Drive: drive, Path: p, Err: err}
	}
	if _, err := binding.Store.Head(ctx, p); err != nil {
		return &Error{Kind: KindNotFound, Drive: drive, Path: p, Err: err}
	}
	return nil
}

// negotiateContent transcodes inbound content per the three-way format
// negotiation used by save.
func negotiateContent(content any, optionsFormat, contentFormat, contentType string) ([]byte, error) {
	switch {
	case optionsFormat == "json":
		return marshalIndented(content)
	case optionsFormat == "base64" && (contentFormat == "base64" || contentType == "PDF"):
		s, ok := content.(string)
		if !ok {
			return nil, fmt.Errorf("base64 content must be a string, got %T", content)
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 content: %w", err)
		}
		return reassemble(decoded), nil
	case optionsFormat == "text":
		s, ok := content.(string)
		if !ok {
			return nil, fmt.Errorf("text content must be a string, got %T", content)
		}
		return []byte(s), nil
	default:
		switch v := content.(type) {
		case string:
			return []byte(v), nil
		case []byte:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported content type %T for format %q", content, optionsFormat)
		}
	}
}

func marshalIndented(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// reassemble copies raw through fixed-size slices into a fresh buffer.
func reassemble(raw []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(raw))
	for off := 0; off < len(raw); off += saveChunkSize {
		end := off + saveChunkSize
		if end > len(raw) {
			end = len(raw)
		}
		buf.Write(raw[off:end])
	}
	return buf.Bytes()
}

// stringContent echoes the inbound content for the save response.
func stringContent(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		b, err := marshalIndented(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
