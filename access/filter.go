// Copyright 2026 Hearthlight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package access implements the row-level security model. A Filter built from
// the caller's identity is composed into every store query; the same predicate
// is available pointwise for in-memory checks. All functions are pure; the
// store persists the result of ApplySharing.
package access

import (
	"slices"

	"github.com/hearthlight/quiver/core"
)

// Filter is a store-query predicate derived from caller identity.
// A record matches when the caller is the owner, the record is public, the
// caller's id or label was explicitly shared with, or any caller group
// intersects the record's groups. Admin filters match everything.
type Filter struct {
	matchAll    bool
	callerId    string
	callerLabel string
	groups      map[string]struct{}
}

// BuildFilter constructs the access predicate for a caller.
// Admins bypass row-level security entirely.
func BuildFilter(caller core.Caller) *Filter {
	f := &Filter{
		matchAll:    caller.IsAdmin,
		callerId:    caller.Id,
		callerLabel: caller.Label,
		groups:      make(map[string]struct{}, len(caller.Groups)),
	}
	for _, g := range caller.Groups {
		f.groups[g] = struct{}{}
	}
	return f
}

// MatchAll reports whether the filter matches every record.
func (f *Filter) MatchAll() bool {
	return f.matchAll
}

// Matches evaluates the predicate against denormalized access fields.
func (f *Filter) Matches(meta core.AccessMeta) bool {
	if f.matchAll {
		return true
	}

	if f.callerId != "" && meta.OwnerId == f.callerId {
		return true
	}

	if meta.IsPublic {
		return true
	}

	for _, identity := range meta.SharedWith {
		if identity == f.callerId || (f.callerLabel != "" && identity == f.callerLabel) {
			return true
		}
	}

	for _, group := range meta.GroupIds {
		if _, ok := f.groups[group]; ok {
			return true
		}
	}

	return false
}

// CanAccess performs the pointwise visibility check for a single record.
// It is a pre-fetch convenience, not a substitute for filtering at the store.
func CanAccess(meta core.AccessMeta, caller core.Caller) bool {
	return BuildFilter(caller).Matches(meta)
}

// ApplySharing returns a copy of meta with sharing fields merged in.
// Grants are incremental: sharedWith and groupIds are unioned with the
// existing sets, never replaced. A nil isPublic leaves the flag untouched.
func ApplySharing(meta core.AccessMeta, isPublic *bool, sharedWith, groupIds []string) core.AccessMeta {
	updated := meta
	updated.SharedWith = slices.Clone(meta.SharedWith)
	updated.GroupIds = slices.Clone(meta.GroupIds)

	if isPublic != nil {
		updated.IsPublic = *isPublic
	}

	for _, identity := range sharedWith {
		if identity != "" && !slices.Contains(updated.SharedWith, identity) {
			updated.SharedWith = append(updated.SharedWith, identity)
		}
	}

	for _, group := range groupIds {
		if group != "" && !slices.Contains(updated.GroupIds, group) {
			updated.GroupIds = append(updated.GroupIds, group)
		}
	}

	return updated
}
