package handler

import (
	"welfare-app-go/internal/transport/httpserver/handler/admin"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	"welfare-app-go/internal/transport/httpserver/handler/members"
)

type Handlers struct {
	Common  *common.Handlers
	Members *members.Handlers
	Admin   *admin.Handlers
}

func New(commonHandlers *common.Handlers, memberHandlers *members.Handlers, adminHandlers *admin.Handlers) *Handlers {
	return &Handlers{
		Common:  commonHandlers,
		Members: memberHandlers,
		Admin:   adminHandlers,
	}
}
