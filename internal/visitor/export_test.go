package visitor

import "time"

// SetClock replaces the time source used when minting identifiers.
func (p *Provider) SetClock(now func() time.Time) { p.now = now }
