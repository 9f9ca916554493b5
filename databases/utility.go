package databases

import "go.mongodb.org/mongo-driver/mongo/options"

type mongoPaginate struct {
	limit int64
	page  int64
}

// NewMongoPaginate builds FindOptions for limit/page style pagination
func NewMongoPaginate(limit, page int) *options.FindOptions {
	mp := &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
	return mp.getPaginatedOpts()
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	if skip < 0 {
		skip = 0
	}
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}
