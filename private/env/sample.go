// Copyright 2019 Anapaya Systems
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

package env

const generalSample = `
# The ID of the service. (required)
id = "%s"

# Directory for loading signer certificates and keys referenced by relative
# paths in the configuration.
config_dir = "/etc/tlsync"
`

const metricsSample = `
# Listen address of the prometheus exporter (host:port, ip:port or :port).
# Metrics are not exported if empty. (default "")
prometheus = ""

# HTTP path the metrics are served under. (default "/metrics")
path = "/metrics"
`

const tracingSample = `
# Report spans of refresh cycles and API requests to jaeger. (default false)
enabled = false

# Trace every cycle regardless of sample_rate. (default false)
debug = false

# Fraction of cycles that are traced, in [0, 1]. (default 0.1)
sample_rate = 0.1

# UDP address of the jaeger agent. (default "localhost:6831")
agent = "localhost:6831"
`
