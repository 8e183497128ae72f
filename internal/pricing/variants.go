package pricing

import (
	"encoding/json"
	"strings"

	"catalog-admin/internal/domain"
)

type variantKind int

const (
	variantsAbsent variantKind = iota
	variantsObject
	variantsList
	variantsText
)

// VariantInput is raw variant data as received from a caller: absent, one
// object, a list of entries, or JSON text encoding either.
type VariantInput struct {
	kind   variantKind
	object map[string]any
	list   []any
	text   string
}

// NoVariants is the absent input.
func NoVariants() VariantInput { return VariantInput{} }

// VariantObject wraps a single variant mapping.
func VariantObject(v map[string]any) VariantInput {
	return VariantInput{kind: variantsObject, object: v}
}

// VariantList wraps a list of entries. Entries that are not mappings are
// dropped during normalization.
func VariantList(entries []any) VariantInput {
	return VariantInput{kind: variantsList, list: entries}
}

// VariantText wraps JSON text holding an object or an array.
func VariantText(s string) VariantInput {
	return VariantInput{kind: variantsText, text: s}
}

// ParseVariantInput classifies a raw request field.
func ParseVariantInput(raw json.RawMessage) VariantInput {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return NoVariants()
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return NoVariants()
	}
	return fromDecoded(decoded, true)
}

// Present reports whether any variant data was supplied.
func (in VariantInput) Present() bool {
	return in.kind != variantsAbsent
}

func fromDecoded(v any, allowText bool) VariantInput {
	switch t := v.(type) {
	case map[string]any:
		return VariantObject(t)
	case []any:
		return VariantList(t)
	case string:
		if allowText {
			return VariantText(t)
		}
	}
	return NoVariants()
}

// entries resolves the input to a list of raw entries. Undecodable text is
// treated as no variants.
func (in VariantInput) entries() []any {
	switch in.kind {
	case variantsObject:
		return []any{in.object}
	case variantsList:
		return in.list
	case variantsText:
		if strings.TrimSpace(in.text) == "" {
			return nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(in.text), &decoded); err != nil {
			return nil
		}
		return fromDecoded(decoded, false).entries()
	}
	return nil
}

// Defaults are the product-level prices a variant inherits.
type Defaults struct {
	OriginalPrice   float64
	DiscountPercent float64
}

// reserved keys are never lifted into attributes.
var reserved = map[string]bool{
	"sku":              true,
	"originalPrice":    true,
	"original_price":   true,
	"discountPercent":  true,
	"discount_percent": true,
	"salePrice":        true,
	"sale_price":       true,
	"stock":            true,
	"attributes":       true,
}

// Normalize converts variant input into canonical variants in input order.
func Normalize(in VariantInput, defaults Defaults) []domain.Variant {
	entries := in.entries()
	variants := make([]domain.Variant, 0, len(entries))
	for _, entry := range entries {
		raw, ok := entry.(map[string]any)
		if !ok || raw == nil {
			continue
		}
		variants = append(variants, normalizeOne(raw, defaults))
	}
	return variants
}

func normalizeOne(raw map[string]any, defaults Defaults) domain.Variant {
	v := domain.Variant{
		OriginalPrice:   defaults.OriginalPrice,
		DiscountPercent: defaults.DiscountPercent,
	}

	if sku, ok := raw["sku"].(string); ok {
		v.SKU = sku
	}
	if stock, ok := number(raw, "stock", ""); ok {
		v.Stock = int(stock)
	}

	attrs := map[string]string{}
	if explicit, ok := raw["attributes"].(map[string]any); ok {
		for k, val := range explicit {
			if s, ok := val.(string); ok {
				attrs[k] = s
			}
		}
	}
	for k, val := range raw {
		if reserved[k] {
			continue
		}
		if s, ok := val.(string); ok {
			attrs[k] = s
		}
	}
	if len(attrs) > 0 {
		v.Attributes = attrs
	}

	if op, ok := number(raw, "originalPrice", "original_price"); ok {
		v.OriginalPrice = op
	}
	if dp, ok := number(raw, "discountPercent", "discount_percent"); ok {
		v.DiscountPercent = dp
	}
	if sp, ok := number(raw, "salePrice", "sale_price"); ok {
		v.SalePrice = sp
	} else {
		v.SalePrice = SalePrice(v.OriginalPrice, v.DiscountPercent)
	}
	return v
}

// number reads a numeric field under either spelling. Strings are not
// coerced.
func number(raw map[string]any, key, alt string) (float64, bool) {
	val, ok := raw[key]
	if !ok && alt != "" {
		val, ok = raw[alt]
	}
	if !ok {
		return 0, false
	}
	switch n := val.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
