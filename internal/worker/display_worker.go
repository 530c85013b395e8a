package worker

import (
	"github.com/spec-kit/turno-service/internal/service"
)

// StartDisplayWorker registers display board handlers.
func StartDisplayWorker(displayService *service.DisplayService) {
	if displayService == nil {
		return
	}
	displayService.RegisterHandlers()
}
