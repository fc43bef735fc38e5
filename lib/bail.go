package lib

import (
	"os"

	"github.com/gravitational/trace"

	"github.com/gravitational/qbrest/lib/logger"
)

// Bail logs every error of an aggregate (or the single error) and exits with
// a nonzero code.
func Bail(err error) {
	log := logger.Standard()
	if agg, ok := trace.Unwrap(err).(trace.Aggregate); ok {
		for _, err := range agg.Errors() {
			log.WithError(err).Error("Terminating...")
		}
	} else {
		log.WithError(err).Error("Terminating...")
	}
	os.Exit(1)
}
