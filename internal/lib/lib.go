// Package lib holds modules that do not fit strictly into other layers,
// currently the Redis/Asynq background job processing under lib/job.
package lib
