package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser    = "user"
	PrefixSession = "sess"
	PrefixLayer   = "layer"
	PrefixStroke  = "stroke"
	PrefixAsset   = "asset"
	PrefixDesign  = "design"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string    { return New(PrefixUser) }
func NewSessionID() string { return New(PrefixSession) }
func NewLayerID() string   { return New(PrefixLayer) }
func NewStrokeID() string  { return New(PrefixStroke) }
func NewAssetID() string   { return New(PrefixAsset) }
func NewDesignID() string  { return New(PrefixDesign) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
