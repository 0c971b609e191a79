package memstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/joy095/travel/models/booking_models"
	"github.com/joy095/travel/models/catalog_models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed(t *testing.T) {
	db := New()

	n, err := db.LoadSeed("testdata/catalog.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ref := booking_models.OfferableRef{
		Kind: booking_models.KindPackage,
		ID:   uuid.MustParse("0190a0c4-1f2e-7a10-8b3c-4d5e6f708193"),
	}
	o, err := db.Catalog().FindOfferable(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon weekend", o.Name)
	assert.Equal(t, "120.00", o.Price.StringFixed(2))
	require.True(t, o.DiscountPrice.Valid)
	assert.Equal(t, "99.00", o.DiscountPrice.Decimal.StringFixed(2))
	assert.True(t, o.IsActive)

	offer, err := db.Catalog().FindOfferable(context.Background(), booking_models.OfferableRef{
		Kind: booking_models.KindOffer,
		ID:   uuid.MustParse("0190a0c4-1f2e-7a10-8b3c-4d5e6f708194"),
	})
	require.NoError(t, err)
	assert.False(t, offer.IsActive)
	assert.False(t, offer.DiscountPrice.Valid)
}

func TestSeedRejectsInvalidRows(t *testing.T) {
	valid := `
  - kind: package
    id: 0190a0c4-1f2e-7a10-8b3c-4d5e6f708193
    company_id: 0190a0c4-0000-7000-8000-000000000001
    price: "120.00"`

	tests := []struct {
		name string
		row  string
	}{
		{"unknown kind", `
  - kind: cruise
    id: 0190a0c4-1f2e-7a10-8b3c-4d5e6f708199
    company_id: 0190a0c4-0000-7000-8000-000000000001
    price: "10.00"`},
		{"bad id", `
  - kind: offer
    id: nope
    company_id: 0190a0c4-0000-7000-8000-000000000001
    price: "10.00"`},
		{"zero price", `
  - kind: offer
    id: 0190a0c4-1f2e-7a10-8b3c-4d5e6f708199
    company_id: 0190a0c4-0000-7000-8000-000000000001
    price: "0"`},
		{"discount above price", `
  - kind: offer
    id: 0190a0c4-1f2e-7a10-8b3c-4d5e6f708199
    company_id: 0190a0c4-0000-7000-8000-000000000001
    price: "10.00"
    discount_price: "12.00"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := New()
			_, err := db.Seed([]byte("offerables:" + valid + tt.row))
			require.Error(t, err)

			_, err = db.Catalog().FindOfferable(context.Background(), booking_models.OfferableRef{
				Kind: booking_models.KindPackage,
				ID:   uuid.MustParse("0190a0c4-1f2e-7a10-8b3c-4d5e6f708193"),
			})
			assert.ErrorIs(t, err, catalog_models.ErrOfferableNotFound, "nothing is added from a rejected seed")
		})
	}
}
