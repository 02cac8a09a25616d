package api

import (
	"github.com/feedmill/feedmill/app/feed"
	"github.com/feedmill/feedmill/app/gather"
)

type Handler struct {
	gatherer  *gather.Gatherer
	generator *feed.Generator
}
