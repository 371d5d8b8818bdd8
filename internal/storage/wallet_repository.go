package storage

import (
	"context"
	"fmt"

	"github.com/portfolio-snapshot/internal/models"
)

// WalletRepository reads on-chain wallet references
type WalletRepository struct {
	db *PostgresDB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *PostgresDB) *WalletRepository {
	return &WalletRepository{db: db}
}

// ListWalletsByPlatform retrieves wallet references for one platform
func (r *WalletRepository) ListWalletsByPlatform(ctx context.Context, platform string) ([]models.WalletReference, error) {
	query := `
		SELECT account_wallet, platform, alias
		FROM crypto_wallets
		WHERE platform = $1
		ORDER BY alias
	`

	rows, err := r.db.Pool().Query(ctx, query, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.WalletReference
	for rows.Next() {
		var wallet models.WalletReference
		if err := rows.Scan(&wallet.Address, &wallet.Platform, &wallet.Alias); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}
	return wallets, rows.Err()
}
