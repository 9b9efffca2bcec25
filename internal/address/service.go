package address

import (
	"context"
	"fmt"

	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
	"github.com/angelmondragon/agrostore-bff/pkg/validation"
)

// Saved is an address from the shopper's directory.
type Saved struct {
	ID int64 `json:"id"`
	types.Address
}

type Service interface {
	List(ctx context.Context, clientID int64) ([]Saved, error)
	Get(ctx context.Context, clientID, addressID int64) (*Saved, error)
	Create(ctx context.Context, clientID int64, addr types.Address) (*Saved, error)
}

type directory interface {
	ListAddresses(ctx context.Context, clientID int64) ([]backend.AddressRecord, error)
	CreateAddress(ctx context.Context, clientID int64, rec backend.AddressRecord) (*backend.AddressRecord, error)
}

type service struct {
	dir directory
}

func NewService(dir directory) (Service, error) {
	if dir == nil {
		return nil, fmt.Errorf("address directory required")
	}
	return &service{dir: dir}, nil
}

// Validate normalizes addr and checks the mandatory fields.
func Validate(addr types.Address) (types.Address, error) {
	addr = addr.Normalize()
	if err := validation.Struct(addr); err != nil {
		return types.Address{}, err
	}
	return addr, nil
}

func (s *service) List(ctx context.Context, clientID int64) ([]Saved, error) {
	if clientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required to use saved addresses")
	}
	recs, err := s.dir.ListAddresses(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]Saved, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, clientID, addressID int64) (*Saved, error) {
	if addressID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id must be positive")
	}
	list, err := s.List(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == addressID {
			return &list[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "saved address not found")
}

func (s *service) Create(ctx context.Context, clientID int64, addr types.Address) (*Saved, error) {
	if clientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required to save addresses")
	}
	addr, err := Validate(addr)
	if err != nil {
		return nil, err
	}
	rec, err := s.dir.CreateAddress(ctx, clientID, toRecord(clientID, addr))
	if err != nil {
		return nil, err
	}
	saved := fromRecord(*rec)
	return &saved, nil
}

func toRecord(clientID int64, a types.Address) backend.AddressRecord {
	return backend.AddressRecord{
		ClientID:   clientID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Street:     a.Street,
		Number:     a.Number,
		Floor:      a.Floor,
		Apartment:  a.Apartment,
		City:       a.City,
		Province:   a.Province,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
		Comment:    a.Comment,
	}
}

func fromRecord(r backend.AddressRecord) Saved {
	return Saved{
		ID: r.ID,
		Address: types.Address{
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Street:     r.Street,
			Number:     r.Number,
			Floor:      r.Floor,
			Apartment:  r.Apartment,
			City:       r.City,
			Province:   r.Province,
			PostalCode: r.PostalCode,
			Phone:      r.Phone,
			Comment:    r.Comment,
		},
	}
}
