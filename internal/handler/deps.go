package handler

import (
	"chatrelay/internal/app/chat"
	"chatrelay/internal/configs"
)

// AppDeps carries the shared objects every handler needs.
type AppDeps struct {
	Manager *chat.Manager
	Config  *configs.AppConfig
}
