// Package domain contains the job model shared by the queue, the worker pool,
// the job service and the HTTP layer: jobs, their lifecycle status, and the
// results (or failure sentinels) their computations produce. It has no
// knowledge of how jobs are scheduled or where results are stored.
package domain
