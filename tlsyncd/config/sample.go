// Copyright 2018 ETH Zurich
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

package config

const idSample = "tlsyncd-1"

const loaderSample = `
# Timeout of a single document request. (default 30s)
timeout = "30s"

# The largest accepted document in bytes. (default 33554432)
max_size = 33554432

# Fetch documents over HTTP/3. (default false)
http3 = false

# How long a fetched document is reused for identical locations within a
# refresh. (default 1m)
memo_ttl = "1m"

# Directory that relative file locations are resolved against. (default "")
dir = ""
`

const jobSample = `
# Maximum number of documents analyzed concurrently. (default 8)
workers = 8

# Interval between online refreshes. (default 1h)
interval = "1h"

# Timeout of a single online refresh. (default 10m)
timeout = "10m"

# Strategy that decides which trust lists are synchronized into the
# certificate store (accept_not_errored|accept_all|expiration_and_signature).
# (default accept_not_errored)
strategy = "accept_not_errored"

# Log a dump of the cache before the synchronization and after the cleanup,
# and the difference between them. (default false)
debug = false

# Remove the trust lists of a list of lists that failed to parse instead of
# keeping their last good state. (default false)
drop_orphans = false

# The enabled alerts. Empty enables all of them. (default [])
alerts = []

# Disable all alerts. (default false)
disable_alerts = false
`
