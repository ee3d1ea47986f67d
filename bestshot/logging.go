package bestshot

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newDiscardLogger is the default logger: library stays silent unless caller injects one
func newDiscardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func trackFields(trk *track) logrus.Fields {
	return logrus.Fields{
		"track_id": trk.id,
		"hits":     trk.hits,
		"missed":   trk.missed,
	}
}
