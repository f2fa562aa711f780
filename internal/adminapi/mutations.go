package adminapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
)

const metafieldsMutation = `mutation SetFlags($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { ownerType owner { ... on ProductVariant { id } } }
    userErrors { field message }
  }
}`

type variantInput struct {
	ID             string  `json:"id"`
	Price          string  `json:"price"`
	CompareAtPrice *string `json:"compareAtPrice"`
}

// UpdatePrices implements catalogs.Service. Changes are grouped by product
// and sent as aliased productVariantsBulkUpdate fields in one document.
func (c *Client) UpdatePrices(ctx context.Context, changes []catalogs.PriceChange) (*catalogs.MutationResult, error) {
	if len(changes) == 0 {
		return &catalogs.MutationResult{}, nil
	}
	if len(changes) > constants.PriceBatchSize {
		return nil, &errors.BatchSizeError{Size: len(changes), Max: constants.PriceBatchSize}
	}

	doc, vars := priceDocument(changes)
	var data map[string]struct {
		ProductVariants []struct {
			ID string `json:"id"`
		} `json:"productVariants"`
		UserErrors userErrors `json:"userErrors"`
	}
	if err := c.do(ctx, doc, vars, &data); err != nil {
		return nil, err
	}

	res := &catalogs.MutationResult{}
	seen := make(map[string]bool)
	for i := 0; i < len(data); i++ {
		field, ok := data["u"+strconv.Itoa(i)]
		if !ok {
			continue
		}
		for _, v := range field.ProductVariants {
			if v.ID != "" && !seen[v.ID] {
				seen[v.ID] = true
				res.Accepted = append(res.Accepted, v.ID)
			}
		}
		res.UserErrors = append(res.UserErrors, field.UserErrors.convert()...)
	}
	return res, nil
}

// priceDocument builds the aliased mutation. Groups keep the order in
// which products first appear in changes.
func priceDocument(changes []catalogs.PriceChange) (string, map[string]any) {
	var order []string
	groups := make(map[string][]variantInput)
	for _, ch := range changes {
		in := variantInput{ID: ch.VariantID, Price: ch.Price.StringFixed(2)}
		if ch.CompareAtPrice != nil {
			s := ch.CompareAtPrice.StringFixed(2)
			in.CompareAtPrice = &s
		}
		if _, ok := groups[ch.ProductID]; !ok {
			order = append(order, ch.ProductID)
		}
		groups[ch.ProductID] = append(groups[ch.ProductID], in)
	}

	var params, fields strings.Builder
	vars := make(map[string]any, 2*len(order))
	for i, pid := range order {
		if i > 0 {
			params.WriteString(", ")
		}
		fmt.Fprintf(&params, "$p%d: ID!, $v%d: [ProductVariantsBulkInput!]!", i, i)
		fmt.Fprintf(&fields, "  u%d: productVariantsBulkUpdate(productId: $p%d, variants: $v%d) {\n", i, i, i)
		fields.WriteString("    productVariants { id }\n    userErrors { field message }\n  }\n")
		vars["p"+strconv.Itoa(i)] = pid
		vars["v"+strconv.Itoa(i)] = groups[pid]
	}
	return "mutation UpdatePrices(" + params.String() + ") {\n" + fields.String() + "}", vars
}

type metafieldInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// UpdateFlags implements catalogs.Service.
func (c *Client) UpdateFlags(ctx context.Context, changes []catalogs.FlagChange) (*catalogs.MutationResult, error) {
	if len(changes) == 0 {
		return &catalogs.MutationResult{}, nil
	}
	if len(changes) > constants.FlagBatchSize {
		return nil, &errors.BatchSizeError{Size: len(changes), Max: constants.FlagBatchSize}
	}

	inputs := make([]metafieldInput, len(changes))
	for i, ch := range changes {
		inputs[i] = metafieldInput{
			OwnerID:   ch.VariantID,
			Namespace: c.namespace,
			Key:       c.key,
			Type:      "boolean",
			Value:     strconv.FormatBool(ch.Value),
		}
	}

	var data struct {
		Set struct {
			Metafields []struct {
				Owner struct {
					ID string `json:"id"`
				} `json:"owner"`
			} `json:"metafields"`
			UserErrors userErrors `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.do(ctx, metafieldsMutation, map[string]any{"metafields": inputs}, &data); err != nil {
		return nil, err
	}

	res := &catalogs.MutationResult{UserErrors: data.Set.UserErrors.convert()}
	for _, m := range data.Set.Metafields {
		if m.Owner.ID != "" {
			res.Accepted = append(res.Accepted, m.Owner.ID)
		}
	}
	return res, nil
}
