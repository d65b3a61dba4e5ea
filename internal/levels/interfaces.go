package levels

import "context"

type Loader interface {
	Load(ctx context.Context, path string) (Catalog, error)
}
