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

package job

import (
	"context"

	"github.com/tlsync/tlsync/private/periodic"
)

// RefreshTaskName is the name of the periodic online refresh.
const RefreshTaskName = "tl_refresh"

// RefreshTask returns a periodic task that runs the online refresh. Errors
// are logged by the job.
func (j *Job) RefreshTask() periodic.Task {
	return periodic.Func{
		TaskName: RefreshTaskName,
		Task: func(ctx context.Context) {
			_, _ = j.OnlineRefresh(ctx)
		},
	}
}
