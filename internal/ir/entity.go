package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// EntityKind tags a witness entity with the cell type it describes.
type EntityKind string

const (
	EntityAccount     EntityKind = "account"
	EntityIncome      EntityKind = "income"
	EntityAccountSale EntityKind = "account_sale"
)

// ErrEntityDecode is returned when a witness entity cannot be decoded.
var ErrEntityDecode = errors.New("witness entity decode failed")

// IncomeRecord credits capacity to a lock inside an income cell.
type IncomeRecord struct {
	BelongTo Script `json:"belong_to" yaml:"belong_to"`
	Capacity uint64 `json:"capacity" yaml:"capacity"`
}

// IncomeEntity is the witness of an income cell.
type IncomeEntity struct {
	Creator Script         `json:"creator" yaml:"creator"`
	Records []IncomeRecord `json:"records" yaml:"records"`
}

// AccountSaleEntity is the witness of an account sale cell.
type AccountSaleEntity struct {
	Account   string `json:"account" yaml:"account"`
	Price     uint64 `json:"price" yaml:"price"`
	StartedAt uint64 `json:"started_at" yaml:"started_at"`
}

// RecordDecoder turns raw witness entity bytes into typed entities.
// The binary encoding used on chain is an external collaborator; JSONDecoder
// is the envelope encoding used by snapshots and tests.
type RecordDecoder interface {
	DecodeAccount(raw []byte) (AccountRecord, error)
	DecodeIncome(raw []byte) (IncomeEntity, error)
	DecodeAccountSale(raw []byte) (AccountSaleEntity, error)
}

type envelope struct {
	Version uint32          `json:"version"`
	Entity  json.RawMessage `json:"entity"`
}

// JSONDecoder decodes {"version":n,"entity":{...}} envelopes.
type JSONDecoder struct{}

var _ RecordDecoder = JSONDecoder{}

func openEnvelope(raw []byte) (envelope, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", ErrEntityDecode, err)
	}
	if len(env.Entity) == 0 {
		return envelope{}, fmt.Errorf("%w: entity is empty", ErrEntityDecode)
	}
	return env, nil
}

// DecodeAccount decodes an account record envelope.
func (JSONDecoder) DecodeAccount(raw []byte) (AccountRecord, error) {
	env, err := openEnvelope(raw)
	if err != nil {
		return nil, err
	}
	var f RecordFields
	if err := json.Unmarshal(env.Entity, &f); err != nil {
		return nil, fmt.Errorf("%w: account: %v", ErrEntityDecode, err)
	}
	return NewAccountRecord(env.Version, f)
}

// DecodeIncome decodes an income cell envelope.
func (JSONDecoder) DecodeIncome(raw []byte) (IncomeEntity, error) {
	env, err := openEnvelope(raw)
	if err != nil {
		return IncomeEntity{}, err
	}
	var e IncomeEntity
	if err := json.Unmarshal(env.Entity, &e); err != nil {
		return IncomeEntity{}, fmt.Errorf("%w: income: %v", ErrEntityDecode, err)
	}
	return e, nil
}

// DecodeAccountSale decodes an account sale envelope.
func (JSONDecoder) DecodeAccountSale(raw []byte) (AccountSaleEntity, error) {
	env, err := openEnvelope(raw)
	if err != nil {
		return AccountSaleEntity{}, err
	}
	var e AccountSaleEntity
	if err := json.Unmarshal(env.Entity, &e); err != nil {
		return AccountSaleEntity{}, fmt.Errorf("%w: account sale: %v", ErrEntityDecode, err)
	}
	return e, nil
}

// EncodeAccount produces the canonical envelope of a record. The bytes are
// stable for a given record, so they double as the witness binding preimage.
func EncodeAccount(r AccountRecord) ([]byte, error) {
	return MarshalCanonical(IRObject{
		"version": IRInt(r.Version()),
		"entity":  r.Fields(),
	})
}

// AccountWitnessHash is the hash an account cell's data commits to.
func AccountWitnessHash(r AccountRecord) (Hash, error) {
	encoded, err := EncodeAccount(r)
	if err != nil {
		return Hash{}, err
	}
	return Blake2b256(encoded), nil
}

// EncodeEntity wraps any JSON-encodable entity in a versioned envelope.
func EncodeEntity(version uint32, entity any) ([]byte, error) {
	body, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"version":`)
	buf.WriteString(strconv.FormatUint(uint64(version), 10))
	buf.WriteString(`,"entity":`)
	buf.Write(body)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
