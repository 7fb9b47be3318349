package contracts

import "errors"

// Error taxonomy shared by providers, the backtest runner and the decision engine.
// Wrap with fmt.Errorf("...: %w", ErrX) and classify with errors.Is.
var (
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrInvalidStrategy     = errors.New("invalid strategy")
	ErrConfiguration       = errors.New("configuration error")
)

// ErrorKind returns the taxonomy name of err, "" for nil
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataUnavailable):
		return "DataUnavailable"
	case errors.Is(err, ErrInsufficientHistory):
		return "InsufficientHistory"
	case errors.Is(err, ErrInvalidStrategy):
		return "InvalidStrategy"
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	default:
		return "Internal"
	}
}
