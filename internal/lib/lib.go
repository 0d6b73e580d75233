// Package lib holds modules that do not fit strictly into other layers:
// background job processing (Redis/asynq), the cron scheduler, and the
// email client (Resend).
package lib
