package postgres

import (
	"context"
	"errors"
	"time"

	"omnichannel/application/ports"
	"omnichannel/domain/entities"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ClientRepository implements the ClientRepository port against PostgreSQL.
// Every operation is a direct pass-through: there is no retry or failure
// classification here, that discipline belongs to the failover layer.
type ClientRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to PostgreSQL and returns the database handle.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// NewClientRepository creates a new ClientRepository backed by the given database.
func NewClientRepository(db *gorm.DB, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the clients table schema.
func (r *ClientRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&entities.Client{})
}

// GetAll returns every client row.
func (r *ClientRepository) GetAll(ctx context.Context) ([]*entities.Client, error) {
	var clients []*entities.Client
	err := r.db.WithContext(ctx).Find(&clients).Error
	return clients, err
}

// GetByID returns the client for the given identifier, or (nil, nil) when the
// row does not exist.
func (r *ClientRepository) GetByID(ctx context.Context, id int) (*entities.Client, error) {
	var client entities.Client
	err := r.db.WithContext(ctx).First(&client, "client_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

// Create inserts a new client row. The identifier is assigned by the table's
// sequence; the creation timestamp is stamped once when unset.
func (r *ClientRepository) Create(ctx context.Context, client *entities.Client) (*entities.Client, error) {
	client.ApplyDefaults(time.Now())

	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, err
	}

	r.logger.Debug("client created in primary store",
		zap.Int("clientID", client.ClientID),
	)
	return client, nil
}

// Update overwrites the full row for the client's identifier.
func (r *ClientRepository) Update(ctx context.Context, client *entities.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// Delete removes the row for the given identifier. Deleting an absent row is
// a no-op.
func (r *ClientRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&entities.Client{}, "client_id = ?", id).Error
}

// Exists reports whether a row with the given identifier is present.
func (r *ClientRepository) Exists(ctx context.Context, id int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Client{}).
		Where("client_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

var _ ports.ClientRepository = (*ClientRepository)(nil)
