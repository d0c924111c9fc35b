// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for Matrix identifiers
// (user IDs, room IDs, room aliases, server names, event IDs) and the
// resolver that completes partially-qualified identifiers typed by an
// operator.
//
// Every type is an immutable value whose zero value is invalid. Values
// are constructed by Parse* functions at system boundaries (command
// arguments, API responses, configuration) and passed through the rest
// of the code already validated. The Resolve* functions sit one level
// above: they accept loose operator input such as "alice" or
// "bob:example.org" and return the fully-qualified form using the room
// or bot identity as the source of the missing server name.
package ref
