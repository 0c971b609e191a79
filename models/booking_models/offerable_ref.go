package booking_models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// OfferableKind names which catalog table a booking points at.
type OfferableKind string

const (
	KindDestination OfferableKind = "destination"
	KindPackage     OfferableKind = "package"
	KindOffer       OfferableKind = "offer"
)

var (
	ErrNoOfferable        = errors.New("one of destination_id, package_id or offer_id is required")
	ErrMultipleOfferables = errors.New("only one of destination_id, package_id or offer_id may be set")
)

func (k OfferableKind) Valid() bool {
	return k == KindDestination || k == KindPackage || k == KindOffer
}

// OfferableRef identifies exactly one destination, package or offer.
type OfferableRef struct {
	Kind OfferableKind `json:"kind"`
	ID   uuid.UUID     `json:"id"`
}

func (r OfferableRef) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}

// Valid reports whether the ref names a known kind and a non-nil id.
func (r OfferableRef) Valid() bool {
	return r.Kind.Valid() && r.ID != uuid.Nil
}

func (r OfferableRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// RefFromFields converts the three optional request ids into a single ref.
// Exactly one of them must be set.
func RefFromFields(destinationID, packageID, offerID *uuid.UUID) (OfferableRef, error) {
	var refs []OfferableRef
	if destinationID != nil && *destinationID != uuid.Nil {
		refs = append(refs, OfferableRef{Kind: KindDestination, ID: *destinationID})
	}
	if packageID != nil && *packageID != uuid.Nil {
		refs = append(refs, OfferableRef{Kind: KindPackage, ID: *packageID})
	}
	if offerID != nil && *offerID != uuid.Nil {
		refs = append(refs, OfferableRef{Kind: KindOffer, ID: *offerID})
	}

	switch len(refs) {
	case 0:
		return OfferableRef{}, ErrNoOfferable
	case 1:
		return refs[0], nil
	default:
		return OfferableRef{}, ErrMultipleOfferables
	}
}
