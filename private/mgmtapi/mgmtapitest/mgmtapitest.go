// Copyright 2021 Anapaya Systems
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

// Package mgmtapitest checks the management API config block against its
// sample.
package mgmtapitest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	api "github.com/tlsync/tlsync/private/mgmtapi"
)

func InitConfig(cfg *api.Config) {
	cfg.Addr = ""
}

func CheckConfig(t *testing.T, cfg *api.Config) {
	assert.Equal(t, "127.0.0.1:31152", cfg.Addr)
}
