package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"finsight/internal/domain/market_data"
	"finsight/pkg/errors"
)

// Compile-time check
var _ market_data.Repository = (*MarketDataRepository)(nil)

// MarketDataRepository implements market_data.Repository using ClickHouse
type MarketDataRepository struct {
	conn driver.Conn
}

// NewMarketDataRepository creates a new market data repository
func NewMarketDataRepository(conn driver.Conn) *MarketDataRepository {
	return &MarketDataRepository{conn: conn}
}

// InsertObservations inserts daily observations in one batch
func (r *MarketDataRepository) InsertObservations(ctx context.Context, obs []market_data.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `INSERT INTO market_observations (asset_id, ts, close, volume)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for i := range obs {
		if err := batch.AppendStruct(&obs[i]); err != nil {
			return errors.Wrap(err, "failed to append observation")
		}
	}

	return batch.Send()
}

// GetRecent returns the latest n observations in ascending time order
func (r *MarketDataRepository) GetRecent(ctx context.Context, assetID string, n int) ([]market_data.Observation, error) {
	var obs []market_data.Observation

	query := `
		SELECT asset_id, ts, close, volume FROM (
			SELECT asset_id, ts, close, volume
			FROM market_observations FINAL
			WHERE asset_id = $1
			ORDER BY ts DESC
			LIMIT $2
		)
		ORDER BY ts ASC`

	if err := r.conn.Select(ctx, &obs, query, assetID, n); err != nil {
		return nil, errors.Wrap(errors.Join(errors.ErrUnavailable, err), "get recent observations")
	}
	return obs, nil
}

// GetRange returns observations within [from, to] in ascending order
func (r *MarketDataRepository) GetRange(ctx context.Context, assetID string, from, to time.Time) ([]market_data.Observation, error) {
	var obs []market_data.Observation

	query := `
		SELECT asset_id, ts, close, volume
		FROM market_observations FINAL
		WHERE asset_id = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC`

	if err := r.conn.Select(ctx, &obs, query, assetID, from, to); err != nil {
		return nil, errors.Wrap(errors.Join(errors.ErrUnavailable, err), "get observation range")
	}
	return obs, nil
}
