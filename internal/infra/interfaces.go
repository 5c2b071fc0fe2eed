package infra

import "context"

type CatalogClientInterface interface {
	GetProduct(ctx context.Context, id string) (*ProductInfo, error)
}

var _ CatalogClientInterface = (*CatalogClient)(nil)
var _ CatalogClientInterface = (*CachedCatalog)(nil)
