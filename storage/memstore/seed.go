package memstore

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/models/catalog_models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of a catalog seed:
//
//	offerables:
//	  - kind: package
//	    id: 0190a0c4-...
//	    company_id: 0190a0c4-...
//	    name: Lisbon weekend
//	    price: "120.00"
//	    discount_price: "99.00"
type seedFile struct {
	Offerables []seedOfferable `yaml:"offerables"`
}

type seedOfferable struct {
	Kind          string `yaml:"kind"`
	ID            string `yaml:"id"`
	CompanyID     string `yaml:"company_id"`
	Name          string `yaml:"name"`
	Price         string `yaml:"price"`
	DiscountPrice string `yaml:"discount_price"`
	Active        *bool  `yaml:"is_active"`
}

func (s seedOfferable) offerable(at time.Time) (catalog_models.Offerable, error) {
	var o catalog_models.Offerable

	ref := booking_models.OfferableRef{Kind: booking_models.OfferableKind(s.Kind)}
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return o, fmt.Errorf("id: %w", err)
	}
	ref.ID = id
	if !ref.Valid() {
		return o, fmt.Errorf("kind %q is not destination, package or offer", s.Kind)
	}

	company, err := uuid.Parse(s.CompanyID)
	if err != nil {
		return o, fmt.Errorf("company_id: %w", err)
	}

	price, err := decimal.NewFromString(s.Price)
	if err != nil || !price.IsPositive() {
		return o, fmt.Errorf("price %q must be a positive amount", s.Price)
	}

	var discount decimal.NullDecimal
	if s.DiscountPrice != "" {
		d, err := decimal.NewFromString(s.DiscountPrice)
		if err != nil || !d.IsPositive() || !d.LessThan(price) {
			return o, fmt.Errorf("discount_price %q must be positive and below price", s.DiscountPrice)
		}
		discount = decimal.NewNullDecimal(d)
	}

	active := true
	if s.Active != nil {
		active = *s.Active
	}

	return catalog_models.Offerable{
		Ref:           ref,
		CompanyID:     company,
		Name:          s.Name,
		Price:         price,
		DiscountPrice: discount,
		IsActive:      active,
		UpdatedAt:     at,
	}, nil
}

// Seed loads catalog rows from YAML and returns how many were added. Rows
// are only added once the whole document is valid.
func (db *DB) Seed(data []byte) (int, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse catalog seed: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]catalog_models.Offerable, 0, len(file.Offerables))
	for i, s := range file.Offerables {
		o, err := s.offerable(now)
		if err != nil {
			return 0, fmt.Errorf("offerable %d: %w", i, err)
		}
		rows = append(rows, o)
	}

	for _, o := range rows {
		db.PutOfferable(o)
	}
	return len(rows), nil
}

// LoadSeed reads a catalog seed file from disk.
func (db *DB) LoadSeed(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog seed: %w", err)
	}
	return db.Seed(data)
}
