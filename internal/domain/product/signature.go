package product

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignatureLine is one (batch, per-unit quantity) pair of a SKU recipe
type SignatureLine struct {
	BatchID         uuid.UUID       `json:"batch_id"`
	PerUnitQuantity decimal.Decimal `json:"per_unit_quantity"`
}

// Signature is the material recipe of a SKU: the fixed, ordered set of
// batches and per-unit quantities established at first manufacture.
type Signature []SignatureLine

// Normalized returns a copy sorted by batch ID with per-unit quantities
// rounded to 4 decimal places. Hashing always operates on the normalized
// form so that identical recipes hash identically regardless of the input
// order or insignificant trailing digits.
func (s Signature) Normalized() Signature {
	out := make(Signature, len(s))
	for i, line := range s {
		out[i] = SignatureLine{
			BatchID:         line.BatchID,
			PerUnitQuantity: line.PerUnitQuantity.Round(4),
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BatchID.String() < out[j].BatchID.String()
	})
	return out
}

// Canonical returns the stable serialization used for hashing:
// "batchID:quantity" pairs joined by "|", in normalized order.
func (s Signature) Canonical() string {
	normalized := s.Normalized()
	parts := make([]string, len(normalized))
	for i, line := range normalized {
		parts[i] = line.BatchID.String() + ":" + line.PerUnitQuantity.StringFixed(4)
	}
	return strings.Join(parts, "|")
}

// Hash returns the deterministic SHA-256 hex digest of the canonical form
func (s Signature) Hash() string {
	sum := sha256.Sum256([]byte(s.Canonical()))
	return hex.EncodeToString(sum[:])
}

// Contains returns true if the signature references the given batch
func (s Signature) Contains(batchID uuid.UUID) bool {
	for _, line := range s {
		if line.BatchID == batchID {
			return true
		}
	}
	return false
}

// RatioFor returns the per-unit quantity for a batch, or zero if the batch is
// not part of the recipe
func (s Signature) RatioFor(batchID uuid.UUID) decimal.Decimal {
	for _, line := range s {
		if line.BatchID == batchID {
			return line.PerUnitQuantity
		}
	}
	return decimal.Zero
}

// Value implements driver.Valuer for GORM JSON storage
func (s Signature) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s.Normalized())
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for GORM JSON storage
func (s *Signature) Scan(value interface{}) error {
	if value == nil {
		*s = Signature{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Signature", value)
	}
	return json.Unmarshal(data, s)
}
