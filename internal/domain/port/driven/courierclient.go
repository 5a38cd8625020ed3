package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartystudio/lockersync/internal/domain/model"
)

// Error taxonomy for courier API calls. Adapters wrap these so callers can
// classify failures with errors.Is without knowing transport details.
var (
	// ErrAuthFailed indicates missing credentials or a rejected authentication
	// exchange. Never retried automatically.
	ErrAuthFailed = errors.New("courier authentication failed")

	// ErrTransport indicates a network-level failure reaching the provider.
	ErrTransport = errors.New("courier transport failure")

	// ErrMalformedResponse indicates the provider returned a body that could
	// not be parsed as JSON.
	ErrMalformedResponse = errors.New("courier response malformed")
)

// ProviderError is a well-formed provider response carrying an
// application-level error message.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("courier api error: %s", e.Message)
}

// CourierClient defines the driven port for the courier's locker API.
// The client fetches a single page per call; pagination is driven by the
// sync engine issuing successive calls with incrementing page numbers.
type CourierClient interface {
	// FetchLockers retrieves one page of lockers for the given country code.
	// Pages are 1-based. totalPages is the provider-declared page count for
	// the query; it is valid whenever err is nil.
	FetchLockers(ctx context.Context, countryCode string, page int) (lockers []model.Locker, totalPages int, err error)
}
