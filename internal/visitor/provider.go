// Package visitor resolves the pseudonymous identifier that ties a device to
// its conversation record.
package visitor

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/device"
)

// StorageKey is the device storage key holding the identifier.
const StorageKey = "events_visitor_id"

const (
	idPrefix     = "visitor_"
	suffixLength = 9
	base36       = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Provider reads or mints the visitor identifier.
type Provider struct {
	storage device.Storage
	now     func() time.Time
	logger  *zap.Logger
}

// NewProvider returns a Provider backed by storage. storage may be nil, in
// which case every call mints a fresh identifier.
func NewProvider(storage device.Storage, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{storage: storage, now: time.Now, logger: logger.Named("visitor")}
}

// GetOrCreate returns the stored identifier, generating and storing one on the
// first call. It never fails: storage errors degrade to an unsaved identifier.
func (p *Provider) GetOrCreate() string {
	if p.storage == nil {
		return p.generate()
	}

	id, ok, err := p.storage.Get(StorageKey)
	if err != nil {
		p.logger.Debug("visitor storage unavailable", zap.Error(err))
		return p.generate()
	}
	if ok && Valid(id) {
		return id
	}

	id = p.generate()
	if err := p.storage.Set(StorageKey, id); err != nil {
		p.logger.Debug("failed to store visitor id", zap.Error(err))
	}
	return id
}

func (p *Provider) generate() string {
	var sb strings.Builder
	sb.Grow(suffixLength)
	for range suffixLength {
		sb.WriteByte(base36[rand.IntN(len(base36))])
	}
	return fmt.Sprintf("%s%d_%s", idPrefix, p.now().UnixMilli(), sb.String())
}

// Valid reports whether id looks like an identifier minted by GetOrCreate.
func Valid(id string) bool {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return false
	}
	millis, suffix, ok := strings.Cut(rest, "_")
	if !ok || millis == "" || len(suffix) != suffixLength {
		return false
	}
	for _, r := range millis {
		if r < '0' || r > '9' {
			return false
		}
	}
	for _, r := range suffix {
		if !strings.ContainsRune(base36, r) {
			return false
		}
	}
	return true
}
