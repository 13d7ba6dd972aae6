package logger

import "go.uber.org/zap"

// New returns a JSON production logger for env "production" and a console
// development logger otherwise.
func New(env string) *zap.Logger {
	if env == "production" {
		return zap.Must(zap.NewProduction())
	}
	return zap.Must(zap.NewDevelopment())
}
