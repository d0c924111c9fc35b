// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds access tokens outside the Go heap.
//
// A Buffer is an anonymous mmap region excluded from core dumps and,
// where the process is allowed to, locked against swap. Close zeros and
// unmaps it. The garbage collector never sees the region, so the token
// bytes cannot be copied around by heap compaction.
package secret

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds sensitive bytes in an mmap region. A Buffer must not be
// copied after creation.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	locked bool
	closed bool
}

// NewFromBytes copies source into a new protected region and zeros
// source in place.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}

	data, err := unix.Mmap(-1, 0, len(source), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}
	// MADV_DONTDUMP is unsupported on some kernels; the region is still
	// off-heap without it.
	_ = unix.Madvise(data, unix.MADV_DONTDUMP)

	// mlock fails under a low RLIMIT_MEMLOCK (containers, CI). Swap
	// protection is lost but the token is still usable.
	locked := unix.Mlock(data) == nil

	copy(data, source)
	clear(source)

	return &Buffer{data: data, locked: locked}, nil
}

// String returns a heap copy of the secret. Use only at API boundaries
// that need a string, such as an Authorization header.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ""
	}
	return string(b.data)
}

// Locked reports whether the region is locked against swap.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Len returns the size of the secret, or 0 after Close.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Close zeros and releases the region. Idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	clear(b.data)
	if b.locked {
		_ = unix.Munlock(b.data)
	}
	err := unix.Munmap(b.data)
	b.data = nil
	if err != nil {
		return fmt.Errorf("secret: munmap failed: %w", err)
	}
	return nil
}
