/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package components

import (
	"context"
	"io"
	"time"

	"github.com/Comcast/ocremote/component"
	"github.com/Comcast/ocremote/core"
)

const (
	propLabel      = "label"
	propSpaceTotal = "spaceTotal"
)

// Modes accepted by Filesystem.Open.
var Modes = []string{"r", "rb", "w", "wb", "a", "ab"}

// Origins accepted by Stream.Seek.
var Origins = []string{"set", "cur", "end"}

func oneOf(s string, valid []string) bool {
	for _, v := range valid {
		if s == v {
			return true
		}
	}
	return false
}

// Filesystem is a mounted drive.
//
// The total capacity never changes and is cached.  The label is
// cached until SetLabel replaces it with whatever the drive actually
// accepted.
type Filesystem struct {
	*component.Handle
}

func NewFilesystem(reg *component.Registry, addr core.Address) (*Filesystem, error) {
	h, err := reg.Handle(addr, KindFilesystem)
	if err != nil {
		return nil, err
	}
	h.Declare(propSpaceTotal, component.Immutable)
	h.Declare(propLabel, component.WriteThrough)
	return &Filesystem{h}, nil
}

// MakeDirectory creates the directory and any missing parents.
func (f *Filesystem) MakeDirectory(ctx context.Context, path string) (bool, error) {
	return callBool(ctx, f.Handle, "makeDirectory", path)
}

func (f *Filesystem) Exists(ctx context.Context, path string) (bool, error) {
	return callBool(ctx, f.Handle, "exists", path)
}

func (f *Filesystem) IsDirectory(ctx context.Context, path string) (bool, error) {
	return callBool(ctx, f.Handle, "isDirectory", path)
}

func (f *Filesystem) Rename(ctx context.Context, from, to string) (bool, error) {
	return callBool(ctx, f.Handle, "rename", from, to)
}

// List names the entries of a directory.  Subdirectory names end in
// a slash.
func (f *Filesystem) List(ctx context.Context, path string) ([]string, error) {
	r, err := f.Invoke(ctx, "list", path)
	if err != nil {
		return nil, err
	}
	v, err := r.ExpectAt(0, core.KindList)
	if err != nil {
		if v, err = r.ExpectAt(0, core.KindTable); err != nil {
			return nil, err
		}
	}
	return texts(v)
}

// LastModified is the real-world time the object was last changed.
// The remote reports milliseconds, not seconds, since the Unix epoch.
// Fractional milliseconds are dropped.
func (f *Filesystem) LastModified(ctx context.Context, path string) (time.Time, error) {
	r, err := f.Invoke(ctx, "lastModified", path)
	if err != nil {
		return time.Time{}, err
	}
	ms, err := r.TruncInt(0)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

func (f *Filesystem) Remove(ctx context.Context, path string) (bool, error) {
	return callBool(ctx, f.Handle, "remove", path)
}

func (f *Filesystem) Size(ctx context.Context, path string) (int, error) {
	return callInt(ctx, f.Handle, "size", path)
}

// Open opens a file.  The mode must be one of Modes.
func (f *Filesystem) Open(ctx context.Context, path, mode string) (*Stream, error) {
	if !oneOf(mode, Modes) {
		return nil, &ModeError{
			Mode:  mode,
			Valid: Modes,
		}
	}
	r, err := f.Invoke(ctx, "open", path, mode)
	if err != nil {
		return nil, err
	}
	fd, err := r.Int(0)
	if err != nil {
		return nil, err
	}
	return &Stream{
		fs: f,
		fd: fd,
	}, nil
}

func (f *Filesystem) IsReadOnly(ctx context.Context) (bool, error) {
	return callBool(ctx, f.Handle, "isReadOnly")
}

// SpaceUsed is the used capacity in bytes.
func (f *Filesystem) SpaceUsed(ctx context.Context) (int, error) {
	return callInt(ctx, f.Handle, "spaceUsed")
}

// SpaceTotal is the overall capacity in bytes.
func (f *Filesystem) SpaceTotal(ctx context.Context) (int, error) {
	return cachedInt(ctx, f.Handle, propSpaceTotal, "spaceTotal")
}

func (f *Filesystem) Label(ctx context.Context) (string, error) {
	return cachedText(ctx, f.Handle, propLabel, "getLabel")
}

// SetLabel sets the drive's label and returns the label the drive
// kept, which may be truncated.
func (f *Filesystem) SetLabel(ctx context.Context, label string) (string, error) {
	kept, err := callText(ctx, f.Handle, "setLabel", label)
	if err != nil {
		return "", err
	}
	f.Store(propLabel, core.Text(kept))
	return kept, nil
}

// Stream is an open file on a Filesystem.
type Stream struct {
	fs *Filesystem
	fd int64
}

// Descriptor is the remote file handle number.
func (s *Stream) Descriptor() int64 {
	return s.fd
}

// Read returns up to n bytes.  At end of file it returns "" and no
// error.
func (s *Stream) Read(ctx context.Context, n int) (string, error) {
	r, err := s.fs.Invoke(ctx, "read", s.fd, n)
	if err != nil {
		return "", err
	}
	if v, have := r.At(0); !have || core.IsNil(v) {
		return "", nil
	}
	return r.Text(0)
}

func (s *Stream) Write(ctx context.Context, data string) (bool, error) {
	return callBool(ctx, s.fs.Handle, "write", s.fd, data)
}

// Seek moves the file pointer relative to whence, which is one of
// Origins, and returns the new position.
func (s *Stream) Seek(ctx context.Context, whence string, offset int) (int, error) {
	if !oneOf(whence, Origins) {
		return 0, &ModeError{
			Mode:  whence,
			Valid: Origins,
		}
	}
	return callInt(ctx, s.fs.Handle, "seek", s.fd, whence, offset)
}

func (s *Stream) Close(ctx context.Context) error {
	return callNone(ctx, s.fs.Handle, "close", s.fd)
}

// DefaultChunk is the read size used by Reader when none is given.
const DefaultChunk = 2048

// Reader adapts the Stream to an io.Reader that reads in chunks of
// the given size.
func (s *Stream) Reader(ctx context.Context, chunk int) io.Reader {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	return &streamReader{
		ctx:   ctx,
		s:     s,
		chunk: chunk,
	}
}

type streamReader struct {
	ctx   context.Context
	s     *Stream
	chunk int
	buf   string
}

func (r *streamReader) Read(p []byte) (int, error) {
	if r.buf == "" {
		data, err := r.s.Read(r.ctx, r.chunk)
		if err != nil {
			return 0, err
		}
		if data == "" {
			return 0, io.EOF
		}
		r.buf = data
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
