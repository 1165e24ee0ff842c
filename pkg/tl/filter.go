// Copyright 2026 The tlsync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tl

import "strings"

// PointerFilter selects the pointers of a list of lists that are followed.
type PointerFilter func(Pointer) bool

// ServiceFilter selects the services of a trust list whose certificates are
// trusted.
type ServiceFilter func(Provider, Service) bool

// TerritoryFilter accepts pointers to one of the given territories. The
// comparison ignores case.
func TerritoryFilter(territories ...string) PointerFilter {
	set := make(map[string]struct{}, len(territories))
	for _, t := range territories {
		set[strings.ToUpper(t)] = struct{}{}
	}
	return func(p Pointer) bool {
		_, ok := set[strings.ToUpper(p.Territory)]
		return ok
	}
}

// MimeTypeFilter accepts pointers with the given MIME type.
func MimeTypeFilter(mimeType string) PointerFilter {
	return func(p Pointer) bool {
		return p.MimeType == mimeType
	}
}

// AllPointers combines filters; a pointer must be accepted by all of them.
func AllPointers(filters ...PointerFilter) PointerFilter {
	return func(p Pointer) bool {
		for _, f := range filters {
			if f != nil && !f(p) {
				return false
			}
		}
		return true
	}
}

// GrantedServices accepts services whose current status is granted.
func GrantedServices(_ Provider, s Service) bool {
	return s.IsGranted()
}

// ServiceTypeFilter accepts services of one of the given types.
func ServiceTypeFilter(types ...string) ServiceFilter {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(_ Provider, s Service) bool {
		_, ok := set[s.Type]
		return ok
	}
}

// AllServices combines filters; a service must be accepted by all of them.
func AllServices(filters ...ServiceFilter) ServiceFilter {
	return func(p Provider, s Service) bool {
		for _, f := range filters {
			if f != nil && !f(p, s) {
				return false
			}
		}
		return true
	}
}
