package repo

import (
	"context"
	"errors"
	"pollhub/backend/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClientRepository stores clients in the clients table (sqlite or mysql).
type GormClientRepository struct {
	db   *gorm.DB
	keys *keyedMutex
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db, keys: newKeyedMutex()}
}

func (r *GormClientRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&models.Client{}, &models.User{})
}

// Replace overwrites info, last_seen, commands and results if the row exists.
func (r *GormClientRepository) Replace(ctx context.Context, c *models.Client) error {
	unlock := r.keys.Lock(clientKey{c.Domain, c.ClientID})
	defer unlock()

	row := c.Clone()
	row.ID = 0
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}, {Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"info", "last_seen", "commands", "results", "updated_at"}),
	}).Create(row).Error
}

// Update reads, modifies and writes in one transaction, with SELECT ... FOR UPDATE on mysql.
// sqlite has no row locks, so the per-key mutex orders writers within the process.
func (r *GormClientRepository) Update(ctx context.Context, domain, clientID string, fn func(*models.Client) error) error {
	unlock := r.keys.Lock(clientKey{domain, clientID})
	defer unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("domain = ? AND client_id = ?", domain, clientID)
		if tx.Dialector.Name() == "mysql" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var c models.Client
		err := q.First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		return tx.Save(&c).Error
	})
}

func (r *GormClientRepository) Get(ctx context.Context, domain, clientID string) (*models.Client, error) {
	var c models.Client
	err := r.db.WithContext(ctx).Where("domain = ? AND client_id = ?", domain, clientID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormClientRepository) ListByDomain(ctx context.Context, domain string) ([]models.Client, error) {
	var list []models.Client
	if err := r.db.WithContext(ctx).Where("domain = ?", domain).Order("client_id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
