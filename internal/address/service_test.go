package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/types"
)

type stubDirectory struct {
	records []backend.AddressRecord
	created []backend.AddressRecord
	err     error
}

func (s *stubDirectory) ListAddresses(ctx context.Context, clientID int64) ([]backend.AddressRecord, error) {
	return s.records, s.err
}

func (s *stubDirectory) CreateAddress(ctx context.Context, clientID int64, rec backend.AddressRecord) (*backend.AddressRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, rec)
	rec.ID = int64(100 + len(s.created))
	return &rec, nil
}

func validAddress() types.Address {
	return types.Address{
		FirstName:  "Ana",
		LastName:   "Pérez",
		Street:     "Ruta 5",
		Number:     "1200",
		City:       "Pergamino",
		Province:   "Buenos Aires",
		PostalCode: "2700",
		Phone:      "2477-555000",
	}
}

func TestListRequiresLogin(t *testing.T) {
	svc, err := NewService(&stubDirectory{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestListMapsRecords(t *testing.T) {
	dir := &stubDirectory{records: []backend.AddressRecord{{ID: 7, FirstName: "Ana", City: "Junín"}}}
	svc, err := NewService(dir)
	require.NoError(t, err)

	got, err := svc.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
	assert.Equal(t, "Junín", got[0].City)

	found, err := svc.Get(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.FirstName)

	_, err = svc.Get(context.Background(), 42, 8)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateValidatesBeforeCalling(t *testing.T) {
	dir := &stubDirectory{}
	svc, err := NewService(dir)
	require.NoError(t, err)

	bad := validAddress()
	bad.Phone = "  "
	_, err = svc.Create(context.Background(), 42, bad)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, dir.created)

	addr := validAddress()
	addr.City = " Pergamino "
	saved, err := svc.Create(context.Background(), 42, addr)
	require.NoError(t, err)
	assert.Equal(t, int64(101), saved.ID)
	assert.Equal(t, "Pergamino", dir.created[0].City)
	assert.Equal(t, int64(42), dir.created[0].ClientID)
}

func TestValidateOptionalFields(t *testing.T) {
	addr := validAddress()
	addr.Floor = ""
	addr.Apartment = ""
	addr.Comment = ""
	_, err := Validate(addr)
	assert.NoError(t, err)

	for _, blank := range []func(*types.Address){
		func(a *types.Address) { a.FirstName = "" },
		func(a *types.Address) { a.LastName = "" },
		func(a *types.Address) { a.Street = "" },
		func(a *types.Address) { a.City = "" },
		func(a *types.Address) { a.Province = "" },
		func(a *types.Address) { a.PostalCode = "" },
		func(a *types.Address) { a.Phone = "" },
	} {
		a := validAddress()
		blank(&a)
		_, err := Validate(a)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}
}

func TestNewServiceRequiresDirectory(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}
