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

const sourcesSample = `
# Lists of lists. Every trust list a list of lists points to is refreshed too.
[[sources.lotl]]
# The location of the document. (required)
url = "https://lotl.example.org/lotl.jws"

# PEM files with the certificates the document is signed with. Relative paths
# are resolved against general.config_dir. (required)
signers = ["lotl-signers.pem"]

# Follow signer changes through the pivots referenced by the document.
# (default false)
pivot_support = true

# The location where signer changes are officially announced. An alert is
# raised if the document announces another location. (default "")
signers_announcement_url = ""

# Territories of the trust lists to follow. Empty follows all of them.
# (default [])
territories = []

# Only follow pointers to documents of this MIME type. (default "")
mime_type = ""

# Services of the derived trust lists whose certificates are trusted.
[sources.lotl.services]
# Service types to accept. Empty accepts all. (default [])
types = []
# Only accept services whose current status is granted. (default false)
granted_only = true

# Trust lists that are not reached through a list of lists.
# [[sources.tl]]
# url = "https://tl.example.org/tl.jws"
# signers = ["tl-signers.pem"]
`
