package economy

import (
	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
)

const maxOracleSourceLen = 64

// UpdateOracle is admin-gated by the caller (handlers.go). The
// numerator/denominator pair must be both zero (oracle cleared) or both
// nonzero; a source label longer than 64 bytes is rejected (spec §4.6).
func UpdateOracle(l *layer.Layer, now int64, payload domain.UpdateOraclePayload) (domain.Event, error) {
	if len(payload.Source) > maxOracleSourceLen {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	zero := payload.PriceNumerator == 0 && payload.PriceDenominator == 0
	nonzero := payload.PriceNumerator != 0 && payload.PriceDenominator != 0
	if !zero && !nonzero {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}

	o, err := l.GetOracle()
	if err != nil {
		return domain.Event{}, err
	}
	o.Source = payload.Source
	o.PriceNumerator = payload.PriceNumerator
	o.PriceDenominator = payload.PriceDenominator
	o.UpdatedAt = now

	if err := l.PutOracle(o); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventOracleUpdated, payload)
}
