package catalogs

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentstation/catalogsync/internal/utils/ptr"
)

// Availability flag metafield.
const (
	FlagNamespace = "custom"
	FlagKey       = "experience_center"
)

// DefaultSnapshotQuery is the product/variant projection exported by the
// snapshot bulk job: ids, barcode, price, compare-at price and the
// availability flag metafield.
const DefaultSnapshotQuery = `{
  products {
    edges {
      node {
        id
        variants {
          edges {
            node {
              id
              barcode
              price
              compareAtPrice
              experienceCenter: metafield(namespace: "` + FlagNamespace + `", key: "` + FlagKey + `") { value }
            }
          }
        }
      }
    }
  }
}`

// Line is one decoded line of a bulk result file: ParentLine, ChildLine or Malformed.
type Line interface {
	isLine()
}

// ParentLine is a product record.
type ParentLine struct {
	ID string
}

// ChildLine is a variant record referencing its product.
type ChildLine struct {
	ParentID       string
	ID             string
	Barcode        string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Flag           *bool
}

// Malformed is a line that could not be decoded.
type Malformed struct {
	Reason string
}

func (ParentLine) isLine() {}
func (ChildLine) isLine()  {}
func (Malformed) isLine()  {}

// Entry converts a child line into a catalog entry.
func (c ChildLine) Entry() Entry {
	return Entry{
		ProductID:             c.ParentID,
		VariantID:             c.ID,
		MatchKey:              strings.TrimSpace(c.Barcode),
		CurrentPrice:          c.Price,
		CurrentCompareAtPrice: c.CompareAtPrice,
		Flag:                  c.Flag,
	}
}

type rawLine struct {
	ID               string              `json:"id"`
	ParentID         string              `json:"__parentId"`
	Barcode          *string             `json:"barcode"`
	Price            decimal.NullDecimal `json:"price"`
	CompareAtPrice   decimal.NullDecimal `json:"compareAtPrice"`
	ExperienceCenter *struct {
		Value string `json:"value"`
	} `json:"experienceCenter"`
}

// ParseLine decodes one NDJSON line of a bulk result file.
func ParseLine(data []byte) Line {
	var raw rawLine
	if err := json.Unmarshal(data, &raw); err != nil {
		return Malformed{Reason: err.Error()}
	}
	if raw.ID == "" {
		return Malformed{Reason: "missing id"}
	}
	if raw.ParentID == "" {
		return ParentLine{ID: raw.ID}
	}
	if !raw.Price.Valid {
		return Malformed{Reason: "variant without price"}
	}

	child := ChildLine{
		ParentID: raw.ParentID,
		ID:       raw.ID,
		Price:    raw.Price.Decimal,
	}
	if raw.Barcode != nil {
		child.Barcode = *raw.Barcode
	}
	if raw.CompareAtPrice.Valid {
		child.CompareAtPrice = ptr.To(raw.CompareAtPrice.Decimal)
	}
	if raw.ExperienceCenter != nil {
		child.Flag = ptr.To(strings.EqualFold(raw.ExperienceCenter.Value, "true"))
	}
	return child
}
