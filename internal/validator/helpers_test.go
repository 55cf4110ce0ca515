package validator_test

import "github.com/fekuna/omnipos-catalog-service/internal/logger"

func nopLogger() logger.ZapLogger {
	return logger.NewNop()
}
