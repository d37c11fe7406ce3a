package api

import (
	"net/http"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/pkg/api"
	"github.com/absmach/flclient/pkg/fl"
)

var (
	_ api.Response = (*healthRes)(nil)
	_ api.Response = (*listRoundsRes)(nil)
	_ api.Response = (*evaluationsRes)(nil)
)

type healthRes struct {
	Status     string `json:"status"`
	ClientID   string `json:"client_id"`
	State      string `json:"state"`
	InstanceID string `json:"instance_id"`
}

func (res healthRes) Code() int {
	return http.StatusOK
}

func (res healthRes) Headers() map[string]string {
	return map[string]string{}
}

func (res healthRes) Empty() bool {
	return false
}

type listRoundsRes struct {
	fl.RoundPage
}

func (res listRoundsRes) Code() int {
	return http.StatusOK
}

func (res listRoundsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res listRoundsRes) Empty() bool {
	return false
}

type evaluationsRes struct {
	Total       int                   `json:"total"`
	Evaluations []client.MetricsEntry `json:"evaluations"`
}

func (res evaluationsRes) Code() int {
	return http.StatusOK
}

func (res evaluationsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res evaluationsRes) Empty() bool {
	return false
}
