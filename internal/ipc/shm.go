//go:build unix

// Package ipc implements the vision→brain shared-memory seqlock
// channel. A single POSIX shared-memory segment — a 4-byte seqlock
// counter followed by the 40-byte face-sample payload — is mapped by
// both the vision writer and the brain reader. There is exactly one
// writer and one reader; the seqlock protocol needs no OS lock.
package ipc

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// region is a named POSIX shared-memory mapping, backed by a file under
// /dev/shm the same way CPython's multiprocessing.shared_memory backs
// its segments on POSIX systems.
type region struct {
	name string
	buf  []byte
	file *os.File
}

func shmPath(name string) string {
	return filepath.Join("/dev/shm", name)
}

// createRegion creates (or truncates and reopens) a shared-memory
// segment of the given size. Only the writer calls this.
func createRegion(name string, size int) (*region, error) {
	path := shmPath(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("ipc: create shm segment %s: %w", name, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("ipc: truncate shm segment %s: %w", name, err)
	}
	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("ipc: mmap shm segment %s: %w", name, err)
	}
	return &region{name: name, buf: buf, file: f}, nil
}

// openRegion attaches to an existing shared-memory segment. Only the
// reader calls this; it does not create the segment.
func openRegion(name string, size int) (*region, error) {
	path := shmPath(name)
	f, err := os.OpenFile(path, os.O_RDWR, 0o666)
	if err != nil {
		return nil, err // not wrapped: caller treats os.IsNotExist specially
	}
	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ipc: mmap shm segment %s: %w", name, err)
	}
	return &region{name: name, buf: buf, file: f}, nil
}

// detach unmaps and closes the segment without removing the backing
// file. Used by the reader, which does not own the segment's lifetime.
func (r *region) detach() error {
	if r.buf != nil {
		if err := unix.Munmap(r.buf); err != nil {
			r.file.Close()
			return fmt.Errorf("ipc: munmap %s: %w", r.name, err)
		}
		r.buf = nil
	}
	return r.file.Close()
}

// destroy unmaps, closes, and unlinks the segment. Used by the writer,
// which owns the segment's lifetime end to end.
func (r *region) destroy() error {
	if err := r.detach(); err != nil {
		return err
	}
	if err := os.Remove(shmPath(r.name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ipc: unlink %s: %w", r.name, err)
	}
	return nil
}
