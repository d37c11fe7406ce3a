package api

import "github.com/absmach/flclient/pkg/api"

type listRoundsReq struct {
	offset, limit uint64
}

func (req listRoundsReq) validate() error {
	if req.limit < 1 || req.limit > api.MaxLimitSize {
		return api.ErrLimitSize
	}

	return nil
}
